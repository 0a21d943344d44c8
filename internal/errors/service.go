// internal/errors/service.go - user-facing error presentation for the CLI
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/valpere/GIVerify/internal/config"
	"github.com/valpere/GIVerify/internal/verify"
)

// Kind classifies a failure for exit codes and messages
type Kind int

const (
	KindGeneral Kind = iota
	KindConfig
	KindSource
	KindOutput
	KindInput
	KindUnavailable
)

// exitCodes follow the historical CLI numbering
var exitCodes = map[Kind]int{
	KindGeneral:     1,
	KindConfig:      2,
	KindSource:      3,
	KindOutput:      5,
	KindInput:       6,
	KindUnavailable: 9,
}

// kindError tags an error with a Kind
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// WithKind tags err so KindOf reports kind. A nil err stays nil.
func WithKind(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// KindOf classifies err. Explicit tags win over inspection of the chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindGeneral
	}

	var tagged *kindError
	if stderrors.As(err, &tagged) {
		return tagged.kind
	}

	var validation config.ValidationError
	var sources *verify.SourcesError
	switch {
	case stderrors.As(err, &validation):
		return KindConfig
	case stderrors.Is(err, verify.ErrEmptyProductCode):
		return KindInput
	case stderrors.Is(err, verify.ErrSchedulerClosed):
		return KindUnavailable
	case stderrors.As(err, &sources), verify.IsTimeout(err):
		return KindSource
	default:
		return KindGeneral
	}
}

// ExitCode returns the process exit code for err; nil maps to 0
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return exitCodes[KindOf(err)]
}

// Describe converts err to a title, a message and suggestions for humans
func Describe(err error) (title, message string, suggestions []string) {
	if err == nil {
		return "", "", nil
	}

	switch KindOf(err) {
	case KindConfig:
		return "Configuration Error",
			"The configuration could not be loaded or is invalid.",
			[]string{
				"Check YAML indentation (use spaces, not tabs)",
				"Check that every ${VAR} reference has a value or a default",
				"Run with --verbose to see which setting failed",
			}
	case KindInput:
		return "Missing Product Code",
			"A product code is required.",
			[]string{"Pass the code printed on the product's GI tag"}
	case KindSource:
		return "Verification Sites Unavailable",
			"Neither verification site returned a usable answer.",
			[]string{
				"Check your internet connection",
				"The verification sites might be slow or down; try again later",
				"Check that Chrome is installed or set browser.exec_path",
			}
	case KindOutput:
		return "Output Error",
			"Results could not be written.",
			[]string{"Check that standard output is writable"}
	case KindUnavailable:
		return "Shutting Down",
			"The verifier stopped before the request finished.",
			nil
	default:
		return "Unexpected Error",
			"An unexpected error occurred during the operation.",
			[]string{
				"Try running the command again",
				"Run with --verbose to see technical details",
			}
	}
}

// FormatForCLI formats err for command-line display
func FormatForCLI(err error, verbose bool) string {
	if err == nil {
		return ""
	}
	title, message, suggestions := Describe(err)

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n%s\n", title, message)

	if verbose {
		fmt.Fprintf(&b, "\nTechnical details: %s\n", err.Error())
	}

	if len(suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, suggestion := range suggestions {
			fmt.Fprintf(&b, "  - %s\n", suggestion)
		}
	}

	return b.String()
}
