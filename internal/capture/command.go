package capture

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os/exec"
	"strings"
	"sync"

	"cashlens/internal/common"
	"cashlens/internal/model"
	"cashlens/internal/service"
)

// CommandSource grabs frames by shelling out to a capture command that writes
// one JPEG image to stdout (an ffmpeg/v4l2 one-shot grab by default). Each
// Grab runs the command once against the live device.
type CommandSource struct {
	command string
	args    []string
	device  string
	state   service.ReadyState
	mu      sync.Mutex
}

// NewCommandSource creates a source around the given command line. An empty
// command selects the default ffmpeg grab from /dev/video0.
func NewCommandSource(command string) *CommandSource {
	return &CommandSource{command: command, device: "/dev/video0"}
}

// Open resolves the command and probes the device with a first grab. Probe
// failures surface through the camera error taxonomy so callers can tell a
// denied permission from an absent device.
func (c *CommandSource) Open(ctx context.Context, constraints service.Constraints) error {
	c.mu.Lock()

	command := c.command
	if command == "" {
		size := fmt.Sprintf("%dx%d", constraints.IdealWidth, constraints.IdealHeight)
		command = fmt.Sprintf("ffmpeg -loglevel error -f v4l2 -video_size %s -i %s -frames:v 1 -f mjpeg -", size, c.device)
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: empty capture command", common.ErrDeviceUnavailable)
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: capture command %q not found", common.ErrDeviceUnavailable, fields[0])
	}

	c.args = fields
	c.state = service.ReadyMetadata
	c.mu.Unlock()

	// Streaming counts as started only once the device has produced a frame.
	if _, err := c.run(ctx); err != nil {
		c.mu.Lock()
		c.state = service.ReadyNothing
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.state = service.ReadyEnoughData
	c.mu.Unlock()
	return nil
}

// Grab captures one frame from the device.
func (c *CommandSource) Grab(ctx context.Context) (model.Frame, error) {
	c.mu.Lock()
	if c.state < service.ReadyEnoughData {
		c.mu.Unlock()
		return model.Frame{}, common.ErrCaptureNotReady
	}
	c.mu.Unlock()

	return c.run(ctx)
}

func (c *CommandSource) run(ctx context.Context) (model.Frame, error) {
	c.mu.Lock()
	args := c.args
	c.mu.Unlock()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return model.Frame{}, classifyExecError(err, stderr.String())
	}

	img, err := jpeg.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: capture command produced no JPEG: %v", common.ErrDeviceUnavailable, err)
	}

	bounds := img.Bounds()
	return model.Frame{
		Data:   stdout.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// ReadyState reports the current readiness level.
func (c *CommandSource) ReadyState() service.ReadyState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close stops the source. Safe to call repeatedly.
func (c *CommandSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = service.ReadyNothing
	return nil
}

// classifyExecError maps capture command failures onto the camera error
// taxonomy using the stderr text the tools emit.
func classifyExecError(err error, stderr string) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "permission denied"), strings.Contains(lower, "not permitted"):
		return fmt.Errorf("%w: %s", common.ErrPermissionDenied, strings.TrimSpace(stderr))
	case strings.Contains(lower, "no such file"), strings.Contains(lower, "no such device"), strings.Contains(lower, "busy"):
		return fmt.Errorf("%w: %s", common.ErrDeviceUnavailable, strings.TrimSpace(stderr))
	default:
		if stderr != "" {
			return fmt.Errorf("%w: %s", common.ErrDeviceUnavailable, strings.TrimSpace(stderr))
		}
		return fmt.Errorf("%w: %v", common.ErrDeviceUnavailable, err)
	}
}
