// pkg/api/types.go
package api

import (
	"github.com/valpere/GIVerify/internal/verify"
)

// Re-export types from internal packages for public API
type (
	Result       = verify.Result
	Source       = verify.Source
	Cache        = verify.Cache
	SourcesError = verify.SourcesError
)

const (
	SourcePrimary   = verify.SourcePrimary
	SourceSecondary = verify.SourceSecondary
)

var (
	ErrEmptyProductCode = verify.ErrEmptyProductCode
	ErrSchedulerClosed  = verify.ErrSchedulerClosed
)

// VerifyRequest is the JSON body accepted by the verify endpoint
type VerifyRequest struct {
	ProductCode string `json:"product_code"`
}

// ErrorResponse is the JSON body returned with 4xx and 5xx responses
type ErrorResponse struct {
	Error string `json:"error"`
}
