package hunt

import (
	"context"
	"sync"
)

// PositionUpdate is one item of a position subscription: a sample or the
// error that ended the subscription.
type PositionUpdate struct {
	Position Position
	Err      error
}

// Subscription is a live, non-restartable stream of position updates. The
// interval between updates is arbitrary.
type Subscription interface {
	Updates() <-chan PositionUpdate
	Stop()
}

// ChanSubscription is a Subscription fed by Send. Stop is idempotent and
// closes the update channel.
type ChanSubscription struct {
	ch   chan PositionUpdate
	done chan struct{}
	once sync.Once
	mu   sync.Mutex
}

func NewChanSubscription(buffer int) *ChanSubscription {
	return &ChanSubscription{
		ch:   make(chan PositionUpdate, buffer),
		done: make(chan struct{}),
	}
}

func (s *ChanSubscription) Updates() <-chan PositionUpdate { return s.ch }

// Send delivers u unless the subscription has stopped or ctx ends first. It
// reports whether u was delivered.
func (s *ChanSubscription) Send(ctx context.Context, u PositionUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.ch <- u:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *ChanSubscription) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}

// Watch consumes sub one sample at a time until ctx is done, the
// subscription closes, or it reports an error. Each outcome is passed to
// onOutcome when non-nil. A subscription error is recorded in the mission
// status and returned. The subscription is stopped on return; mission
// progress is left as it is.
func (m *Mission) Watch(ctx context.Context, sub Subscription, onOutcome func(Outcome)) error {
	defer sub.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return nil
		case u, ok := <-sub.Updates():
			if !ok {
				m.Stop()
				return nil
			}
			if u.Err != nil {
				m.OnPositionError(u.Err)
				return u.Err
			}
			out, err := m.OnPosition(ctx, u.Position)
			if err != nil {
				return err
			}
			if onOutcome != nil {
				onOutcome(out)
			}
		}
	}
}
