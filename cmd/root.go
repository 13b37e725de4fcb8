package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shrinkray/pkg/batch"
)

var (
	targetSizeKB   uint64
	dimensionsFlag string
	outputDir      string
	maintainRatio  bool
	parallel       bool
	workerCount    int
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "shrinkray [input]",
	Short: "Resize and recompress images to a target file size",
	Long: `Shrinkray resizes and recompresses raster images to satisfy a target
file size and/or target pixel dimensions, processing a single file or a
whole directory tree.

Given a size target it searches the quality axis first (full resolution
is always preferred), then walks the scale factor down until the encoded
output fits. When the target is unreachable the smallest achievable
encode is kept and flagged, rather than failing the file.

Supported formats: JPEG, PNG, GIF, BMP, WebP.

Examples:
  shrinkray photo.jpg -s 100
  shrinkray vacation/ -s 250 -o compressed/ --parallel
  shrinkray poster.png -d 800x600 --maintain-ratio
  shrinkray scans/ -s 500 -d 1920x1080 -r -v`,
	Version: "1.1.0",
	Args:    cobra.ExactArgs(1),
	RunE:    runResize,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Uint64VarP(&targetSizeKB, "size", "s", 0, "Target file size in KB")
	rootCmd.Flags().StringVarP(&dimensionsFlag, "dimensions", "d", "", "Target dimensions (e.g. 800x600)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: resized/ next to each input)")
	rootCmd.Flags().BoolVarP(&maintainRatio, "maintain-ratio", "r", false, "Maintain aspect ratio when resizing")
	rootCmd.Flags().BoolVarP(&parallel, "parallel", "p", false, "Process images in parallel")
	rootCmd.Flags().IntVar(&workerCount, "workers", 0, "Number of worker goroutines (0 = auto)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed processing information")
}

func runResize(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input path does not exist: %s", inputPath)
	}

	width, height, err := parseDimensions(dimensionsFlag)
	if err != nil {
		return err
	}

	if targetSizeKB == 0 && width == 0 {
		return fmt.Errorf("nothing to do: specify --size and/or --dimensions")
	}

	opts := batch.Options{
		InputPath:     inputPath,
		OutputDir:     outputDir,
		TargetBytes:   int64(targetSizeKB) * 1024,
		Width:         width,
		Height:        height,
		MaintainRatio: maintainRatio,
		Parallel:      parallel,
		WorkerCount:   workerCount,
		Verbose:       verbose,
	}

	_, err = batch.New(opts).Run()
	return err
}

// parseDimensions parses a WIDTHxHEIGHT string. An empty string means no
// dimension constraint.
func parseDimensions(s string) (int, int, error) {
	if s == "" {
		return 0, 0, nil
	}

	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid dimensions %q (expected WIDTHxHEIGHT, e.g. 800x600)", s)
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid width in dimensions %q", s)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid height in dimensions %q", s)
	}

	return width, height, nil
}
