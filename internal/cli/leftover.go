package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	geojsonadapter "github.com/samirrijal/geocover/internal/adapters/geojson"
	"github.com/samirrijal/geocover/internal/core/usecases"
	"github.com/samirrijal/geocover/internal/pkg/metrics"
)

func newLeftoverCmd(opts *RootOptions) *cobra.Command {
	var subjectPath, clippersPath string

	cmd := &cobra.Command{
		Use:   "leftover",
		Short: "Print what remains of a subject after subtracting each clipper in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := readGeometry(subjectPath)
			if err != nil {
				return fmt.Errorf("read subject: %w", err)
			}
			clippers, err := readGeometries(clippersPath)
			if err != nil {
				return fmt.Errorf("read clippers: %w", err)
			}

			subjectMP, clipperMPs, err := geojsonadapter.LeftoverRequest{Subject: subject, Clippers: clippers}.Geometries()
			if err != nil {
				return err
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			ctx = usecases.WithTransport(ctx, metrics.TransportCLI)

			leftover, err := svc.Leftover(ctx, subjectMP, clipperMPs)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), geojsonadapter.EncodeMultiPolygon(leftover))
		},
	}

	cmd.Flags().StringVar(&subjectPath, "subject", "", "GeoJSON file holding the subject (required)")
	cmd.Flags().StringVar(&clippersPath, "clippers", "", "JSON array of geometries or FeatureCollection, in order (required)")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("clippers")
	return cmd
}
