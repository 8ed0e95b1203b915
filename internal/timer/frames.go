package timer

import (
	"context"
	"time"
)

// DefaultFrameRate matches the common display refresh rate
const DefaultFrameRate = 60

// FrameSource paces the refresh loop. Next blocks until the next frame
// opportunity or until ctx is done.
type FrameSource interface {
	Next(ctx context.Context) (time.Time, error)
}

// TickerFrames emits frames at a fixed rate
type TickerFrames struct {
	ticker *time.Ticker
}

// NewTickerFrames creates a frame source running at rate frames per second
func NewTickerFrames(rate int) *TickerFrames {
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	return &TickerFrames{
		ticker: time.NewTicker(time.Second / time.Duration(rate)),
	}
}

// Next waits for the next tick
func (f *TickerFrames) Next(ctx context.Context) (time.Time, error) {
	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case t := <-f.ticker.C:
		return t, nil
	}
}

// Stop releases the underlying ticker
func (f *TickerFrames) Stop() {
	f.ticker.Stop()
}

// ManualFrames emits a frame whenever a value is sent on C
type ManualFrames struct {
	C chan time.Time
}

// NewManualFrames creates a manually driven frame source
func NewManualFrames() *ManualFrames {
	return &ManualFrames{C: make(chan time.Time)}
}

// Next waits for the next value on C
func (f *ManualFrames) Next(ctx context.Context) (time.Time, error) {
	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case t := <-f.C:
		return t, nil
	}
}
