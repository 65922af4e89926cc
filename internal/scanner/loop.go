// Package scanner drives the capture-and-classify cycle against a live frame
// source.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"cashlens/internal/common"
	"cashlens/internal/model"
)

// FrameCapturer produces a still frame on demand. *capture.Session satisfies it.
type FrameCapturer interface {
	Capture(ctx context.Context) (model.Frame, error)
}

// Detector classifies a frame into a display-ready detection. *predict.Client
// satisfies it.
type Detector interface {
	Detect(ctx context.Context, frame model.Frame) (model.Detection, error)
}

// Result is the outcome of one scan cycle: a detection or the error that
// prevented one.
type Result struct {
	Err       error
	Detection model.Detection
}

// DefaultInterval is how often the continuous loop fires a scan cycle.
const DefaultInterval = 1500 * time.Millisecond

// Loop runs capture-and-classify on a fixed interval. A tick is skipped
// entirely while a previous cycle is still unresolved; that in-flight guard
// is the only backpressure in the system and keeps at most one classification
// request outstanding. Stopping the loop cancels the schedule and waits for
// any in-flight cycle to finish; its result is dropped, never delivered.
type Loop struct {
	capturer FrameCapturer
	detector Detector
	onResult func(Result)
	cancel   context.CancelFunc
	done     chan struct{}
	interval time.Duration
	inFlight atomic.Bool
	cycles   sync.WaitGroup
	mu       sync.Mutex
}

// NewLoop creates a loop delivering results to onResult.
func NewLoop(capturer FrameCapturer, detector Detector, interval time.Duration, onResult func(Result)) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		capturer: capturer,
		detector: detector,
		interval: interval,
		onResult: onResult,
	}
}

// Start begins ticking. It is a no-op when the loop is already running.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(ctx, l.done)
}

// Stop cancels the schedule and waits for the ticker and any in-flight cycle
// to wind down; once it returns, no further results are delivered. Idempotent.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	l.cycles.Wait()
}

// InFlight reports whether a scan cycle is currently unresolved.
func (l *Loop) InFlight() bool {
	return l.inFlight.Load()
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !l.inFlight.CompareAndSwap(false, true) {
				slog.Debug("Scan cycle still in flight, skipping tick")
				continue
			}
			l.cycles.Add(1)
			go l.cycle(ctx)
		}
	}
}

func (l *Loop) cycle(ctx context.Context) {
	defer l.cycles.Done()
	defer l.inFlight.Store(false)

	result, deliver := Cycle(ctx, l.capturer, l.detector)
	if !deliver || ctx.Err() != nil {
		// Late results after teardown are dropped, never delivered.
		return
	}
	l.onResult(result)
}

// Cycle runs one capture-and-classify pass. The second return value is false
// when the cycle produced nothing to report: the source was momentarily not
// ready, which the continuous loop treats as a skipped frame rather than an
// error.
func Cycle(ctx context.Context, capturer FrameCapturer, detector Detector) (Result, bool) {
	frame, err := capturer.Capture(ctx)
	if err != nil {
		if errors.Is(err, common.ErrCaptureNotReady) {
			return Result{}, false
		}
		return Result{Err: err}, true
	}

	detection, err := detector.Detect(ctx, frame)
	if err != nil {
		return Result{Err: err}, true
	}
	return Result{Detection: detection}, true
}

// NewDetector adapts a raw predictor into a Detector by applying the
// confidence threshold normalization.
func NewDetector(p Predictor, threshold float64) Detector {
	return thresholdDetector{predictor: p, threshold: threshold}
}

// Predictor is the raw classification capability the detector wraps.
type Predictor interface {
	Predict(ctx context.Context, frame model.Frame) (model.Prediction, error)
}

type thresholdDetector struct {
	predictor Predictor
	threshold float64
}

func (d thresholdDetector) Detect(ctx context.Context, frame model.Frame) (model.Detection, error) {
	prediction, err := d.predictor.Predict(ctx, frame)
	if err != nil {
		return model.Detection{}, err
	}
	return prediction.Display(d.threshold), nil
}
