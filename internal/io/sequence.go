package io

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"ghost-detector/internal/core"
)

// ImageSequence replays the still images of a directory as frames, in
// file name order. With Loop set it starts over after the last image,
// otherwise the stream ends.
type ImageSequence struct {
	Dir  string
	Loop bool

	mu     sync.Mutex
	loader *ImageLoader
	paths  []string
	next   int
	open   bool
	logger *logrus.Entry
}

var _ core.Source = (*ImageSequence)(nil)

func NewImageSequence(dir string, loop bool, logger *logrus.Logger) *ImageSequence {
	return &ImageSequence{
		Dir:    dir,
		Loop:   loop,
		loader: NewImageLoader(logger),
		logger: logger.WithField("dir", dir),
	}
}

// Open lists the directory. An empty directory is an error.
func (s *ImageSequence) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := s.loader.ListImages(s.Dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images in %s: %w", s.Dir, ErrSourceNotOpen)
	}

	s.paths = paths
	s.next = 0
	s.open = true
	s.logger.WithFields(logrus.Fields{
		"images": len(paths),
		"loop":   s.Loop,
	}).Info("CAPTURE: Image sequence opened")
	return nil
}

// Read loads the next image into dst. Unreadable files end the stream.
func (s *ImageSequence) Read(dst *gocv.Mat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return false
	}
	if s.next >= len(s.paths) {
		if !s.Loop {
			return false
		}
		s.next = 0
	}

	path := s.paths[s.next]
	s.next++

	mat, err := s.loader.LoadImage(path)
	if err != nil {
		mat.Close()
		s.logger.WithError(err).Warn("CAPTURE: Failed to load image")
		return false
	}

	// hand the loaded Mat over instead of copying into dst
	dst.Close()
	*dst = mat
	return true
}

// Close ends the sequence
func (s *ImageSequence) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = false
	s.paths = nil
	return nil
}
