package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	geojsonadapter "github.com/samirrijal/geocover/internal/adapters/geojson"
	natsadapter "github.com/samirrijal/geocover/internal/adapters/nats"
	"github.com/samirrijal/geocover/internal/core/usecases"
	"github.com/samirrijal/geocover/internal/pkg/logging"
	"github.com/samirrijal/geocover/internal/pkg/metrics"
)

func newCoverageCmd(opts *RootOptions) *cobra.Command {
	var subjectPath, candidatesPath, subjectID string

	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Print the aggregate and per-candidate coverage of a subject",
		Example: `  coverctl coverage --subject zone.geojson --candidates sensors.geojson --measure planar
  coverctl coverage --subject zone.geojson --candidates sensors.json --nats-url nats://localhost:4222`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := readGeometry(subjectPath)
			if err != nil {
				return fmt.Errorf("read subject: %w", err)
			}
			candidates, err := readGeometries(candidatesPath)
			if err != nil {
				return fmt.Errorf("read candidates: %w", err)
			}

			req := geojsonadapter.CoverageRequest{
				Subject:    &geojsonadapter.AreaPayload{Area: subject},
				Candidates: make([]geojsonadapter.AreaPayload, 0, len(candidates)),
			}
			if subjectID != "" {
				req.Subject.ID = &subjectID
			}
			for _, c := range candidates {
				req.Candidates = append(req.Candidates, geojsonadapter.AreaPayload{Area: c})
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			if opts.NATSURL != "" {
				return runRemoteCoverage(ctx, cmd, opts, req)
			}
			return runLocalCoverage(ctx, cmd, opts, req)
		},
	}

	cmd.Flags().StringVar(&subjectPath, "subject", "", "GeoJSON file holding the area to be covered (required)")
	cmd.Flags().StringVar(&candidatesPath, "candidates", "", "JSON array of geometries or FeatureCollection, in order (required)")
	cmd.Flags().StringVar(&subjectID, "subject-id", "", "identifier attached to the subject")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("candidates")
	return cmd
}

func runLocalCoverage(ctx context.Context, cmd *cobra.Command, opts *RootOptions, req geojsonadapter.CoverageRequest) error {
	svc, err := opts.service()
	if err != nil {
		return err
	}
	subject, candidates, err := req.Areas()
	if err != nil {
		return err
	}

	ctx = usecases.WithTransport(ctx, metrics.TransportCLI)
	res, err := svc.Coverage(ctx, subject, candidates)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), geojsonadapter.EncodeCoverage(res))
}

func runRemoteCoverage(ctx context.Context, cmd *cobra.Command, opts *RootOptions, req geojsonadapter.CoverageRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	conn, err := natsadapter.Connect(opts.NATSURL, "coverctl")
	if err != nil {
		return err
	}
	defer conn.Close()

	logging.LoggerFromCtx(ctx).Debug("sending coverage request", "subject", opts.NATSSubject, "bytes", len(body))
	data, err := natsadapter.NewClient(conn, opts.NATSSubject, opts.Timeout).Coverage(ctx, body)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(cmd.OutOrStdout())
	return err
}
