package capture

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cashlens/internal/common"
	"cashlens/internal/model"
	"cashlens/internal/service"
)

// jpegQuality matches the encode quality the capture path has always used.
const jpegQuality = 80

// DirectorySource serves frames by cycling through the JPEG files of a
// directory. It stands in for a live camera during development and testing.
type DirectorySource struct {
	dir   string
	files []string
	state service.ReadyState
	next  int
	mu    sync.Mutex
}

// NewDirectorySource creates a source over the given directory.
func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{dir: dir}
}

// Open scans the directory for JPEG files. A missing or empty directory maps
// to ErrDeviceUnavailable, the same way a missing camera would.
func (d *DirectorySource) Open(_ context.Context, _ service.Constraints) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeviceUnavailable, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg":
			files = append(files, filepath.Join(d.dir, e.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("%w: no JPEG files in %s", common.ErrDeviceUnavailable, d.dir)
	}

	d.files = files
	d.next = 0
	d.state = service.ReadyEnoughData
	return nil
}

// Grab decodes the next file in the cycle and re-encodes it at capture
// quality and native resolution.
func (d *DirectorySource) Grab(_ context.Context) (model.Frame, error) {
	d.mu.Lock()
	if d.state < service.ReadyEnoughData {
		d.mu.Unlock()
		return model.Frame{}, common.ErrCaptureNotReady
	}
	path := d.files[d.next]
	d.next = (d.next + 1) % len(d.files)
	d.mu.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: %v", common.ErrDeviceUnavailable, err)
	}

	return encodeJPEG(raw)
}

// ReadyState reports the current readiness level.
func (d *DirectorySource) ReadyState() service.ReadyState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Close resets the source. Safe to call repeatedly.
func (d *DirectorySource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files = nil
	d.state = service.ReadyNothing
	return nil
}

// encodeJPEG normalizes raw JPEG bytes to the capture contract: decoded and
// re-encoded at capture quality, dimensions taken from the image itself.
func encodeJPEG(raw []byte) (model.Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return model.Frame{}, fmt.Errorf("decoding frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return model.Frame{}, fmt.Errorf("encoding frame: %w", err)
	}

	bounds := img.Bounds()
	return model.Frame{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
