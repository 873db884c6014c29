package httpclient

import (
	"sync/atomic"
	"time"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
)

const (
	stateClosed int32 = iota
	stateOpen
	stateHalfOpen
)

var stateNames = [...]string{"closed", "open", "half_open"}

// Breaker fails fast after Threshold consecutive failures and lets a single
// probe through once Cooldown has elapsed.  A nil Breaker or a zero
// threshold disables it.
type Breaker struct {
	state     atomic.Int32
	fails     atomic.Int32
	openedAt  atomic.Int64
	permits   atomic.Int32
	threshold int32
	cooldown  time.Duration
	now       func() time.Time
	logger    logging.Logger
	name      string
}

func NewBreaker(name string, threshold int, cooldown time.Duration, logger logging.Logger) *Breaker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Breaker{name: name, threshold: int32(threshold), cooldown: cooldown, now: time.Now, logger: logger}
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	if b == nil || b.threshold <= 0 {
		return true
	}
	switch b.state.Load() {
	case stateClosed:
		return true
	case stateOpen:
		if b.now().Sub(time.Unix(0, b.openedAt.Load())) < b.cooldown {
			return false
		}
		if b.state.CompareAndSwap(stateOpen, stateHalfOpen) {
			b.permits.Store(1)
			b.transition(stateOpen, stateHalfOpen)
		}
		return b.permits.Add(-1) >= 0
	default:
		return b.permits.Add(-1) >= 0
	}
}

func (b *Breaker) Success() {
	if b == nil || b.threshold <= 0 {
		return
	}
	b.fails.Store(0)
	if b.state.CompareAndSwap(stateHalfOpen, stateClosed) {
		b.transition(stateHalfOpen, stateClosed)
	}
}

func (b *Breaker) Failure() {
	if b == nil || b.threshold <= 0 {
		return
	}
	n := b.fails.Add(1)
	switch b.state.Load() {
	case stateClosed:
		if n >= b.threshold && b.state.CompareAndSwap(stateClosed, stateOpen) {
			b.openedAt.Store(b.now().UnixNano())
			b.transition(stateClosed, stateOpen)
		}
	case stateHalfOpen:
		if b.state.CompareAndSwap(stateHalfOpen, stateOpen) {
			b.openedAt.Store(b.now().UnixNano())
			b.transition(stateHalfOpen, stateOpen)
		}
	}
}

// State returns "closed", "open" or "half_open".
func (b *Breaker) State() string {
	if b == nil {
		return stateNames[stateClosed]
	}
	return stateNames[b.state.Load()]
}

func (b *Breaker) transition(from, to int32) {
	b.logger.Warn("circuit breaker state change",
		logging.String("client", b.name),
		logging.String("from", stateNames[from]),
		logging.String("to", stateNames[to]))
}

//Personal.AI order the ending
