// cmd/giverify/main.go
package main

import (
	"context"

	"github.com/valpere/GIVerify/cmd/giverify/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
