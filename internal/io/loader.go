// Still image loading for image-sequence sources
package io

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger *logrus.Entry
}

func NewImageLoader(logger *logrus.Logger) *ImageLoader {
	return &ImageLoader{
		logger: logger.WithField("component", "loader"),
	}
}

// LoadImage reads a color image as BGR
func (il *ImageLoader) LoadImage(path string) (gocv.Mat, error) {
	il.logger.WithField("filepath", path).Debug("CAPTURE: Loading image")

	if !isSupportedImageFormat(path) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("failed to load image: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Debug("CAPTURE: Image loaded")

	return mat, nil
}

// ListImages returns the supported image files in dir in lexical order
func (il *ImageLoader) ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedImageFormat(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
