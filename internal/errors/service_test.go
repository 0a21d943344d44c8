// internal/errors/service_test.go
package errors

import (
	stderrors "errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/valpere/GIVerify/internal/config"
	"github.com/valpere/GIVerify/internal/verify"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindGeneral},
		{"plain", stderrors.New("boom"), KindGeneral},
		{"tagged", WithKind(stderrors.New("yaml: line 3"), KindConfig), KindConfig},
		{"tag survives wrapping", eris.Wrap(WithKind(stderrors.New("x"), KindOutput), "write"), KindOutput},
		{"validation", stderrors.Join(config.ValidationError{Field: "logging.level", Message: "bad"}), KindConfig},
		{"empty code", eris.Wrap(verify.ErrEmptyProductCode, "submit"), KindInput},
		{"closed", verify.ErrSchedulerClosed, KindUnavailable},
		{"both sources", &verify.SourcesError{
			ProductCode: "GI-1",
			Primary:     stderrors.New("a"),
			Secondary:   stderrors.New("b"),
		}, KindSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(stderrors.New("boom")))
	assert.Equal(t, 2, ExitCode(WithKind(stderrors.New("x"), KindConfig)))
	assert.Equal(t, 6, ExitCode(verify.ErrEmptyProductCode))
}

func TestWithKind_Nil(t *testing.T) {
	assert.NoError(t, WithKind(nil, KindConfig))
}

func TestFormatForCLI(t *testing.T) {
	err := WithKind(stderrors.New("yaml: line 3: mapping values are not allowed"), KindConfig)

	quiet := FormatForCLI(err, false)
	assert.Contains(t, quiet, "Configuration Error")
	assert.Contains(t, quiet, "Suggestions:")
	assert.NotContains(t, quiet, "line 3")

	verbose := FormatForCLI(err, true)
	assert.Contains(t, verbose, "Technical details: yaml: line 3")

	assert.Empty(t, FormatForCLI(nil, true))
}
