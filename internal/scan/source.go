package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoFrame is returned by FrameSource.Next when no new frame is ready yet.
var ErrNoFrame = errors.New("no new frame")

// FrameSource is a capture device. Next returns io.EOF when the source is
// exhausted.
type FrameSource interface {
	Open(ctx context.Context) error
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// NewSource picks a source for path: a directory is read as a batch of
// images, anything else as a snapshot file refreshed by a capture tool.
func NewSource(path string) FrameSource {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return &DirSource{Dir: path}
	}
	return &SnapshotSource{Path: path}
}

// SnapshotSource polls an image file that an external capture tool keeps
// overwriting (e.g. `fswebcam --loop 1 frame.jpg`). A frame is only returned
// when the file changed since the last one.
type SnapshotSource struct {
	Path string

	last time.Time
	open bool
}

func (s *SnapshotSource) Open(ctx context.Context) error {
	if s.Path == "" {
		return errors.New("no snapshot path configured")
	}
	if _, err := os.Stat(s.Path); err != nil {
		return err
	}
	s.last = time.Time{}
	s.open = true
	return nil
}

func (s *SnapshotSource) Next(ctx context.Context) (image.Image, error) {
	if !s.open {
		return nil, io.ErrClosedPipe
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, err
	}
	if !info.ModTime().After(s.last) {
		return nil, ErrNoFrame
	}
	img, err := LoadImage(s.Path)
	if err != nil {
		// Caught the file mid-write; try again next tick.
		return nil, ErrNoFrame
	}
	s.last = info.ModTime()
	return img, nil
}

func (s *SnapshotSource) Close() error {
	s.open = false
	return nil
}

// DirSource returns the images of a directory one per frame, in name order.
type DirSource struct {
	Dir string

	files []string
	pos   int
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

func (s *DirSource) Open(ctx context.Context) error {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return err
	}
	s.files = s.files[:0]
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		s.files = append(s.files, filepath.Join(s.Dir, e.Name()))
	}
	sort.Strings(s.files)
	s.pos = 0
	if len(s.files) == 0 {
		return fmt.Errorf("no images in %s", s.Dir)
	}
	return nil
}

func (s *DirSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.files) {
		return nil, io.EOF
	}
	path := s.files[s.pos]
	s.pos++
	img, err := LoadImage(path)
	if err != nil {
		// An unreadable file is a frame without a code, not a broken device.
		return nil, ErrNoFrame
	}
	return img, nil
}

func (s *DirSource) Close() error {
	s.files = nil
	s.pos = 0
	return nil
}
