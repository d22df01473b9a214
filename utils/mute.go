package utils

import (
	"sync"
	"time"
)

// MuteState is the outcome of recording an event in a BatchMute.
type MuteState int

const (
	Pass     MuteState = iota // event should be shown
	Muting                    // first event over the limit of the batch
	Muted                     // event over the limit, already announced
	Resuming                  // first event of a new batch after muting
)

// BatchMute throttles events by limiting count per interval.
// A zero count or interval disables muting.
type BatchMute struct {
	lock          sync.Mutex
	batchTime     time.Time
	resetInterval time.Duration
	ctr           int
	max           int
}

// increment returns whether the event is over the limit and, once the
// previous batch went over it, how many events were over the limit.
func (b *BatchMute) increment(val int, t time.Time) (muted bool, skipped int) {
	if b.max == 0 || b.resetInterval == 0 {
		return false, 0
	}

	if b.ctr >= b.max {
		skipped = b.ctr - b.max
	}
	if t.Sub(b.batchTime) > b.resetInterval {
		b.ctr = 0
		b.batchTime = t
	}
	b.ctr += val

	return b.ctr > b.max, skipped
}

func (b *BatchMute) state(t time.Time) (MuteState, int) {
	b.lock.Lock()
	defer b.lock.Unlock()

	muted, skipped := b.increment(1, t)
	switch {
	case muted && skipped == 0:
		return Muting, 0
	case muted:
		return Muted, skipped
	case skipped > 0:
		return Resuming, skipped
	default:
		return Pass, 0
	}
}

// Record registers one event. skipped is the number of events muted so far
// in the current batch, or in the previous one when Resuming.
func (b *BatchMute) Record() (state MuteState, skipped int) {
	return b.state(time.Now().UTC())
}

// NewBatchMute creates a BatchMute with a reset interval and max count.
func NewBatchMute(resetInterval time.Duration, max int) *BatchMute {
	return &BatchMute{
		batchTime:     time.Now().UTC(),
		resetInterval: resetInterval,
		max:           max,
	}
}
