// cmd/giverify/commands/root.go
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/GIVerify/internal/config"
	apperrors "github.com/valpere/GIVerify/internal/errors"
	"github.com/valpere/GIVerify/internal/logging"
	"github.com/valpere/GIVerify/internal/verify"
	"github.com/valpere/GIVerify/pkg/api"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// verifierService is what the commands need from the core
type verifierService interface {
	ScrapeProduct(ctx context.Context, productCode string) (*verify.Result, error)
	QueueLength() int
	Busy() bool
	CacheSize() int
	Close() error
}

// newVerifier builds the production verifier; tests replace it
var newVerifier = func(opts api.Options) verifierService {
	return api.New(opts)
}

type rootOptions struct {
	configFile string
	logLevel   string
	verbose    bool
}

// NewRootCommand builds the giverify command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "giverify",
		Short:         "giverify checks GI product codes against the official verification portals.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "show technical error details")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// ExecuteContext runs the CLI and exits with a code derived from the failure
func ExecuteContext(ctx context.Context) {
	opts := &rootOptions{}
	if err := newRootCommand(opts).ExecuteContext(ctx); err != nil {
		fmt.Fprint(os.Stderr, apperrors.FormatForCLI(err, opts.verbose))
		os.Exit(apperrors.ExitCode(err))
	}
}

// load reads the configuration and builds the logger
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg := config.Default()
	if o.configFile != "" {
		loaded, err := config.LoadFromFile(o.configFile)
		if err != nil {
			return nil, nil, apperrors.WithKind(err, apperrors.KindConfig)
		}
		cfg = loaded
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, apperrors.WithKind(eris.Wrap(err, "invalid configuration"), apperrors.KindConfig)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, apperrors.WithKind(err, apperrors.KindConfig)
	}
	return cfg, logger, nil
}
