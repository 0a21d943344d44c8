// cmd/giverify/commands/check.go
package commands

import (
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/valpere/GIVerify/internal/errors"
	"github.com/valpere/GIVerify/internal/verify"
	"github.com/valpere/GIVerify/pkg/api"
)

// checkLine is one line of check output
type checkLine struct {
	ProductCode string         `json:"product_code"`
	Result      *verify.Result `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func newCheckCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check CODE...",
		Short: "Verify product codes and print one JSON line per code",
		Long: "Verify product codes and print one JSON line per code.\n" +
			"Codes are submitted together and extracted one at a time, so output order follows completion.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			verifier := newVerifier(api.Options{Browser: &cfg.Browser, Logger: logger})
			defer verifier.Close()

			var (
				mu      sync.Mutex
				failed  int
				encoder = json.NewEncoder(cmd.OutOrStdout())
			)

			var g errgroup.Group
			for _, code := range args {
				code := code
				g.Go(func() error {
					result, err := verifier.ScrapeProduct(cmd.Context(), code)
					line := checkLine{ProductCode: code, Result: result}
					if err != nil {
						logger.Debug("check failed", zap.String("product_code", code), zap.Error(err))
						line.Error = err.Error()
					}

					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						failed++
					}
					return encoder.Encode(line)
				})
			}
			if err := g.Wait(); err != nil {
				return apperrors.WithKind(eris.Wrap(err, "failed to write output"), apperrors.KindOutput)
			}

			if failed > 0 {
				err := eris.Errorf("%d of %d product codes could not be verified", failed, len(args))
				return apperrors.WithKind(err, apperrors.KindSource)
			}
			return nil
		},
	}
}
