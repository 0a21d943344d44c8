// internal/verify/result.go

// Package verify holds the provenance extraction core: the normalized
// result model, the row normalizer, the result cache, the two-source
// fallback orchestrator and the serial scheduler that keeps a single
// automation session active at a time.
package verify

import (
	"context"
	"strings"
)

// Source identifies which verification site produced a result
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
)

// Result is the outcome of one completed extraction. Treat it as immutable
// once returned; use Clone before changing a shared value.
type Result struct {
	ProductCode    string            `json:"product_code"`
	ImageURL       string            `json:"image_url,omitempty"`
	Attributes     map[string]string `json:"attributes"`
	AuthorizedUser string            `json:"authorized_user,omitempty"`
	Artisan        string            `json:"artisan,omitempty"`
	Invalid        bool              `json:"invalid"`
	Source         Source            `json:"source"`
}

// InvalidResult returns the verdict for a code the site declared not genuine
func InvalidResult(code string) *Result {
	return &Result{
		ProductCode: code,
		Attributes:  map[string]string{},
		Invalid:     true,
	}
}

// Usable reports whether r is neither an invalid verdict nor empty of attributes
func (r *Result) Usable() bool {
	return r != nil && !r.Invalid && len(r.Attributes) > 0
}

// Clone returns a deep copy of r
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Attributes = make(map[string]string, len(r.Attributes))
	for k, v := range r.Attributes {
		out.Attributes[k] = v
	}
	return &out
}

// withSource returns a copy of r tagged with source
func (r *Result) withSource(source Source) *Result {
	out := r.Clone()
	out.Source = source
	if out.Attributes == nil {
		out.Attributes = map[string]string{}
	}
	return out
}

// Extractor pulls a result for a product code from one verification site
type Extractor interface {
	Extract(ctx context.Context, productCode string) (*Result, error)
}

// ExtractorFunc adapts a function to Extractor
type ExtractorFunc func(ctx context.Context, productCode string) (*Result, error)

// Extract calls f(ctx, productCode)
func (f ExtractorFunc) Extract(ctx context.Context, productCode string) (*Result, error) {
	return f(ctx, productCode)
}

// NormalizeCode trims surrounding whitespace from a product code and
// rejects empty codes
func NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrEmptyProductCode
	}
	return code, nil
}
