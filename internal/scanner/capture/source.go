package capture

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"sync"
)

var (
	ErrSourceUnavailable = errors.New("video source unavailable")
	ErrSourceBusy        = errors.New("video source already claimed")
	ErrSourceIdle        = errors.New("video source is not capturing")
	ErrUnsupportedFrame  = errors.New("unsupported frame content type")
)

// ChannelSource is a FrameSource fed by frames pushed from the client.
// Only one controller may hold it at a time.
type ChannelSource struct {
	mu        sync.Mutex
	buffer    int
	available bool
	claimed   bool
	facing    Facing
	frames    chan image.Image
	dropped   int
}

// NewChannelSource creates an available source holding up to buffer pending frames
func NewChannelSource(buffer int) *ChannelSource {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSource{buffer: buffer, available: true}
}

// SetAvailable marks the device as present or not, e.g. after a permission change
func (s *ChannelSource) SetAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = available
}

func (s *ChannelSource) Acquire(facing Facing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.available {
		return ErrSourceUnavailable
	}
	if s.claimed {
		return ErrSourceBusy
	}
	s.claimed = true
	s.facing = facing
	s.frames = make(chan image.Image, s.buffer)
	return nil
}

func (s *ChannelSource) Frames() <-chan image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *ChannelSource) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimed = false
	s.frames = nil
}

// Claimed reports whether a controller currently holds the source
func (s *ChannelSource) Claimed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimed
}

// Facing returns the orientation of the current or last claim
func (s *ChannelSource) Facing() Facing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

// Push queues a frame. When the buffer is full the frame is dropped, the
// decoder only ever needs the freshest frames.
func (s *ChannelSource) Push(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.claimed {
		return ErrSourceIdle
	}
	select {
	case s.frames <- img:
	default:
		s.dropped++
	}
	return nil
}

// PushEncoded decodes a JPEG or PNG frame and queues it
func (s *ChannelSource) PushEncoded(contentType string, r io.Reader) error {
	var (
		img image.Image
		err error
	)
	switch mediaType(contentType) {
	case "image/jpeg", "image/jpg":
		img, err = jpeg.Decode(r)
	case "image/png":
		img, err = png.Decode(r)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFrame, contentType)
	}
	if err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	return s.Push(img)
}

// Dropped returns how many frames were discarded on a full buffer
func (s *ChannelSource) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
