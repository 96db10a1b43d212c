package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixeldiff/internal/codec"
	"github.com/cwbudde/pixeldiff/internal/compare"
)

var (
	basePath       string
	actualPath     string
	diffOutPath    string
	colorThreshold float64
	failThreshold  float64
	includeAA      bool
	noResize       bool
	outFormat      string
	outQuality     int
	includeBounds  bool
	maskOnly       bool
	jsonOutput     bool
	softLimitBytes int
	hardLimitBytes int
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two images pixel by pixel",
	Long:  `Compares a base and an actual image, writes a visual diff and reports the mismatch percentage with a pass/fail verdict.`,
	RunE:  runComparison,
}

func init() {
	compareCmd.Flags().StringVar(&basePath, "base", "", "Base image path (required)")
	compareCmd.Flags().StringVar(&actualPath, "actual", "", "Actual image path (required)")
	compareCmd.Flags().StringVar(&diffOutPath, "out", "diff.png", "Diff image output path")
	compareCmd.Flags().Float64Var(&colorThreshold, "color-threshold", 0.1, "Perceptual color distance cutoff (0-1)")
	compareCmd.Flags().Float64Var(&failThreshold, "threshold", 0, "Mismatch percentage above which the comparison fails (0-100)")
	compareCmd.Flags().BoolVar(&includeAA, "aa", false, "Count antialiased pixels as differences")
	compareCmd.Flags().BoolVar(&noResize, "no-resize", false, "Fail on dimension mismatch instead of resizing")
	compareCmd.Flags().StringVar(&outFormat, "format", "png", "Diff image format: png, jpeg, webp, gif, bmp")
	compareCmd.Flags().IntVar(&outQuality, "quality", -1, "Output quality (1-100) or PNG compression level (0-9)")
	compareCmd.Flags().BoolVar(&includeBounds, "bounds", false, "Report the bounding box of changed pixels")
	compareCmd.Flags().BoolVar(&maskOnly, "mask", false, "Render only differences on a blank background")
	compareCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result as JSON")
	compareCmd.Flags().IntVar(&softLimitBytes, "soft-limit", 3<<20, "Byte size that triggers image compression")
	compareCmd.Flags().IntVar(&hardLimitBytes, "hard-limit", 6<<20, "Byte size above which payloads are rejected")

	compareCmd.MarkFlagRequired("base")
	compareCmd.MarkFlagRequired("actual")
	rootCmd.AddCommand(compareCmd)
}

func runComparison(cmd *cobra.Command, args []string) error {
	baseBytes, err := os.ReadFile(basePath)
	if err != nil {
		return fmt.Errorf("failed to read base image: %w", err)
	}
	actualBytes, err := os.ReadFile(actualPath)
	if err != nil {
		return fmt.Errorf("failed to read actual image: %w", err)
	}

	format, ok := codec.ParseFormat(outFormat)
	if !ok || !format.CanEncode() {
		return fmt.Errorf("unsupported output format: %s", outFormat)
	}

	opts := compare.DefaultOptions()
	opts.ColorThreshold = colorThreshold
	opts.Threshold = failThreshold
	opts.IncludeAntialiasing = includeAA
	opts.Resize.Enabled = !noResize
	opts.OutputFormat = format
	opts.OutputQuality = outQuality
	opts.IncludeBounds = includeBounds
	opts.IncludeMetadata = jsonOutput
	opts.DiffMaskOnly = maskOnly

	comparator := compare.New(softLimitBytes, hardLimitBytes)

	outcome, err := comparator.Compare(baseBytes, actualBytes, opts)
	if err != nil {
		return err
	}

	slog.Info("Comparison complete",
		"difference_pct", outcome.DifferencePercentage,
		"status", outcome.Status,
		"elapsed", outcome.Elapsed,
	)

	if outcome.DiffImage != nil && diffOutPath != "" {
		if err := os.WriteFile(diffOutPath, outcome.DiffImage, 0o644); err != nil {
			return fmt.Errorf("failed to write diff image: %w", err)
		}
	}

	if jsonOutput {
		printJSONResult(outcome)
	} else {
		fmt.Printf("%.2f%% difference, status: %s\n", outcome.DifferencePercentage, outcome.Status)
		if outcome.DiffImage != nil && diffOutPath != "" {
			fmt.Printf("Wrote %s\n", diffOutPath)
		}
		if outcome.BoundingBox != nil {
			b := outcome.BoundingBox
			fmt.Printf("Changed region: (%d,%d)-(%d,%d), %dx%d px\n",
				b.Left, b.Top, b.Right, b.Bottom, b.Width(), b.Height())
		}
	}

	if outcome.Status == compare.StatusFailed {
		return fmt.Errorf("comparison failed: %.2f%% difference exceeds threshold %g%%",
			outcome.DifferencePercentage, failThreshold)
	}
	return nil
}

func printJSONResult(outcome *compare.Outcome) {
	result := map[string]any{
		"differencePercentage": outcome.DifferencePercentage,
		"status":               outcome.Status,
		"elapsedMs":            float64(outcome.Elapsed.Microseconds()) / 1000,
	}
	if outcome.BoundingBox != nil {
		result["boundingBox"] = outcome.BoundingBox
	}
	if outcome.Metadata != nil {
		result["metadata"] = outcome.Metadata
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(result)
}
