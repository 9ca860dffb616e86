package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/geocover/internal/adapters/clip"
	"github.com/samirrijal/geocover/internal/core/usecases"
	"github.com/samirrijal/geocover/internal/pkg/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	LogLevel    string
	LogFormat   string
	Measure     string
	Workers     int
	NATSURL     string
	NATSSubject string
	Timeout     time.Duration
}

// service builds a local coverage service from the global flags.
func (o *RootOptions) service() (*usecases.CoverageService, error) {
	measure, err := clip.ParseAreaMeasure(o.Measure)
	if err != nil {
		return nil, err
	}
	return usecases.NewCoverageService(clip.New(measure), o.Workers), nil
}

// NewRootCommand creates the coverctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "coverctl",
		Short:   "Compute how much of an area a set of polygons covers",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			logger := logging.New(cmd.ErrOrStderr(), opts.LogLevel, opts.LogFormat)
			cmd.SetContext(logging.WithLogger(ctx, logger))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.LogFormat, "log-format", "text", "log format (text, json)")
	pf.StringVar(&opts.Measure, "measure", string(clip.Geodesic), "area measure (planar, geodesic)")
	pf.IntVar(&opts.Workers, "workers", 1, "concurrent per-candidate computations")
	pf.StringVar(&opts.NATSURL, "nats-url", "", "send requests to a coverage worker at this NATS URL instead of computing locally")
	pf.StringVar(&opts.NATSSubject, "nats-subject", "coverage.compute", "NATS subject the worker listens on")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall operation timeout")

	cmd.AddCommand(
		newCoverageCmd(opts),
		newLeftoverCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "coverctl %s (commit: %s)\n", Version, GitCommit)
			return err
		},
	}
}
