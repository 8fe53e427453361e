package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/pkg/logger"
	"github.com/tair/inventory-scanner/pkg/metrics"
)

// Default video constraints requested from the camera
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Controller bridges a FrameSource to an Engine and yields at most one
// Result per activation.
type Controller struct {
	engine  Engine
	metrics *metrics.ScannerMetrics
	now     func() time.Time

	mu     sync.Mutex
	state  State
	facing Facing
	active *activation
}

type activation struct {
	cancel  context.CancelFunc
	done    chan struct{}
	stopped atomic.Bool
	emitter *Emitter
}

// NewController creates an idle controller facing the environment camera
func NewController(engine Engine, m *metrics.ScannerMetrics) *Controller {
	return &Controller{
		engine:  engine,
		metrics: m,
		now:     time.Now,
		state:   StateIdle,
		facing:  FacingEnvironment,
	}
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Facing returns the orientation used by the next activation
func (c *Controller) Facing() Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

// Constraints returns the video settings for the next activation
func (c *Controller) Constraints() Constraints {
	return Constraints{Width: DefaultWidth, Height: DefaultHeight, Facing: c.Facing()}
}

// Activate claims src and starts decoding in the background. onResult runs
// at most once, after the source has been released and the controller is
// idle again, so it may call back into the controller.
//
// A source that cannot be claimed is logged and returned as a
// *domain.CaptureError; the controller stays idle. Activating while already
// scanning is a no-op.
func (c *Controller) Activate(ctx context.Context, src FrameSource, onResult func(Result)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateScanning {
		return nil
	}
	if src == nil {
		return c.unavailable(ctx, ErrSourceUnavailable)
	}
	if err := src.Acquire(c.facing); err != nil {
		return c.unavailable(ctx, err)
	}

	// The loop outlives the request that started it.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	act := &activation{
		cancel:  cancel,
		done:    make(chan struct{}),
		emitter: NewEmitter(onResult),
	}
	c.active = act
	c.state = StateScanning
	c.metrics.CaptureStarted()

	logger.Info(ctx).
		Str("facing", string(c.facing)).
		Msg("Capture started")

	go c.run(loopCtx, src, act)
	return nil
}

func (c *Controller) unavailable(ctx context.Context, err error) error {
	logger.Error(ctx).
		Err(err).
		Str("facing", string(c.facing)).
		Msg("Camera unavailable, capture not started")
	return &domain.CaptureError{Err: err}
}

func (c *Controller) run(ctx context.Context, src FrameSource, act *activation) {
	var (
		result *Result
		err    error
	)

	func() {
		defer c.engine.Reset()
		defer src.Release()

		// fn runs on this goroutine, result needs no locking.
		err = c.engine.Decode(ctx, src.Frames(), func(text string, decodeErr error) {
			switch {
			case result != nil:
				// Already recognized, stop was requested.
			case decodeErr == nil:
				c.metrics.Decode(metrics.ResultSuccess)
				result = &Result{Text: text, RecognizedAt: c.now()}
				act.cancel()
			case errors.Is(decodeErr, ErrNotFound):
				c.metrics.Decode(metrics.ResultNotFound)
			default:
				c.metrics.Decode(metrics.ResultError)
				logger.Warn(ctx).
					Err(decodeErr).
					Msg("Decode attempt failed")
			}
		})
	}()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx).
			Err(&domain.CaptureError{Err: err}).
			Msg("Decode engine stopped")
	}

	c.mu.Lock()
	if c.active == act {
		c.active = nil
		c.state = StateIdle
		c.metrics.CaptureStopped()
	}
	c.mu.Unlock()
	act.cancel()
	close(act.done)

	if result == nil || act.stopped.Load() {
		return
	}

	logger.Info(ctx).
		Str("barcode", result.Text).
		Msg("Barcode recognized")
	act.emitter.Emit(*result)
}

// Deactivate stops the decode loop and waits until the engine is reset and
// the source released. Safe to call when idle.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	act := c.active
	c.mu.Unlock()

	if act == nil {
		return
	}
	act.stopped.Store(true)
	act.cancel()
	<-act.done
}

// ToggleFacing releases the stream and flips the orientation for the next activation
func (c *Controller) ToggleFacing() Facing {
	c.Deactivate()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.facing = c.facing.Flip()
	return c.facing
}
