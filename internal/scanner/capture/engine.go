package capture

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrNotFound reports a frame that holds no readable barcode
var ErrNotFound = errors.New("no barcode found in frame")

// State of a capture controller
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
)

// Facing is the requested camera orientation
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Flip returns the opposite orientation
func (f Facing) Flip() Facing {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

// Constraints are the video settings the host should request from the camera
type Constraints struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Facing Facing `json:"facing_mode"`
}

// Result is a recognized payload. It is never persisted.
type Result struct {
	Text         string    `json:"text"`
	RecognizedAt time.Time `json:"recognized_at"`
}

// Engine decodes barcodes from a stream of frames.
//
// Decode calls fn once per frame from the calling goroutine, with either the
// recognized text, ErrNotFound, or another decode error. It returns when ctx
// is done or frames is closed. Reset releases whatever the engine keeps
// between frames.
type Engine interface {
	Decode(ctx context.Context, frames <-chan image.Image, fn func(text string, err error)) error
	Reset()
}

// FrameSource is an exclusively claimed video stream
type FrameSource interface {
	Acquire(facing Facing) error
	Frames() <-chan image.Image
	Release()
}
