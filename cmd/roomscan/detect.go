package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"roomscan/internal/detect"
	"roomscan/internal/imaging"
	"roomscan/internal/overlay"
)

func newDetectCmd() *cobra.Command {
	params := detect.DefaultParams()
	var overlayPath string

	cmd := &cobra.Command{
		Use:   "detect <image>",
		Short: "Detect rooms in a local blueprint image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, format, err := imaging.Decode(data)
			if err != nil {
				return err
			}

			detector := detect.NewContourDetector()
			rooms, err := detector.Detect(cmd.Context(), img, params)
			if err != nil {
				return err
			}

			b := img.Bounds()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d %s, %d room(s)\n",
				args[0], b.Dx(), b.Dy(), format, len(rooms))
			writeRoomTable(cmd, rooms)

			if overlayPath != "" {
				png, err := overlay.EncodePNG(img, rooms)
				if err != nil {
					return err
				}
				if err := os.WriteFile(overlayPath, png, 0o644); err != nil {
					return fmt.Errorf("writing overlay: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "overlay written to %s\n", overlayPath)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&params.MinAreaPx, "min-area", params.MinAreaPx,
		"minimum room area in pixels")
	cmd.Flags().Float64Var(&params.MaxAreaPx, "max-area", params.MaxAreaPx,
		"maximum room area in pixels")
	cmd.Flags().Float64Var(&params.SimplifyEpsilonRatio, "epsilon-ratio", params.SimplifyEpsilonRatio,
		"polygon simplification tolerance as a fraction of the contour perimeter")
	cmd.Flags().Float64Var(&params.ContainmentRatioThreshold, "containment-ratio", params.ContainmentRatioThreshold,
		"minimum inner/outer area ratio to keep a nested candidate")
	cmd.Flags().StringVar(&overlayPath, "overlay", "",
		"write an annotated PNG to this path")
	return cmd
}

func writeRoomTable(cmd *cobra.Command, rooms []detect.Room) {
	if len(rooms) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Vertices", "Area (px)", "Perimeter (px)", "Centroid", "Bounding box"})
	for _, r := range rooms {
		t.AppendRow(table.Row{
			r.ID,
			len(r.Polygon),
			fmt.Sprintf("%.0f", r.Area),
			fmt.Sprintf("%.0f", r.Perimeter),
			fmt.Sprintf("(%.1f, %.1f)", r.CentroidX, r.CentroidY),
			fmt.Sprintf("[%d,%d %d,%d]", r.BoundingBox.MinX, r.BoundingBox.MinY, r.BoundingBox.MaxX, r.BoundingBox.MaxY),
		})
	}
	t.Render()
}
