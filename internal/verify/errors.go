// internal/verify/errors.go
package verify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrEmptyProductCode is returned for a blank product code
	ErrEmptyProductCode = eris.New("product code is empty")

	// ErrSchedulerClosed is returned for submissions to, or requests still
	// queued in, a closed scheduler
	ErrSchedulerClosed = eris.New("scheduler is closed")
)

// SourcesError reports that both verification sites failed
type SourcesError struct {
	ProductCode string
	Primary     error
	Secondary   error
}

func (e *SourcesError) Error() string {
	return fmt.Sprintf("extraction failed for %q: primary source: %v; secondary source: %v",
		e.ProductCode, e.Primary, e.Secondary)
}

// Unwrap exposes both causes to errors.Is and errors.As
func (e *SourcesError) Unwrap() []error {
	return []error{e.Primary, e.Secondary}
}

// IsTimeout reports whether err stems from a missed deadline
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout")
}

// errorKind is a short metrics label for err
func errorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsTimeout(err):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

type panicError struct {
	value interface{}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("extraction aborted: %v", e.value)
}
