package replay

import (
	"context"
	"time"

	"github.com/yetype/yetype/internal/session"
)

// DefaultFrameInterval is the playback frame period.
const DefaultFrameInterval = 16 * time.Millisecond

// DefaultGrace is how long the final frame stays up before playback finishes.
const DefaultGrace = 200 * time.Millisecond

// Options configures Run. Zero values select the defaults; a negative Grace
// finishes as soon as the last record is applied.
type Options struct {
	Interval time.Duration
	Grace    time.Duration
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultFrameInterval
	}
	if o.Grace < 0 {
		o.Grace = 0
	} else if o.Grace == 0 {
		o.Grace = DefaultGrace
	}
	return o
}

// Run drives p on a ticker, measuring elapsed time from start with clock,
// and calls onFrame for every frame that applied records. Once every record
// is applied it waits the grace delay and returns nil. Cancelling ctx stops
// playback at the next tick and returns ctx.Err().
func Run(ctx context.Context, p *Player, clock session.Clock, start time.Time, opts Options, onFrame func(Frame)) error {
	opts = opts.withDefaults()
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for !p.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		elapsed := clock.Now().Sub(start).Milliseconds()
		if frame, changed := p.Advance(elapsed); changed && onFrame != nil {
			onFrame(frame)
		}
	}

	grace := time.NewTimer(opts.Grace)
	defer grace.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-grace.C:
		return nil
	}
}
