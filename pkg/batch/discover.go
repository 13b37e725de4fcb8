package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsImagePath reports whether the path has a supported image extension.
// Discovery goes by extension; the codec sniffs the real format from
// content before decoding.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// CollectImages returns the image files under path. A file input yields
// itself when it looks like an image; a directory is walked recursively.
func CollectImages(path string) ([]string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}

	if !stat.IsDir() {
		if !IsImagePath(path) {
			return nil, nil
		}
		return []string{path}, nil
	}

	var images []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsImagePath(p) {
			images = append(images, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}

	return images, nil
}

// outputPath builds the destination for one input file and makes sure
// the directory exists. Without an explicit output directory, results go
// to a resized/ subdirectory next to the input, named <stem>_resized<ext>.
func outputPath(inputPath, outputDir string) (string, error) {
	dir := outputDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(inputPath), "resized")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	return filepath.Join(dir, stem+"_resized"+ext), nil
}
