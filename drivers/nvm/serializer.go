package nvm

import "context"

// serializer admits one holder at a time. It starts unlocked.
//
// acquire has no timeout of its own. With context.Background it waits for
// as long as the current holder takes.
type serializer struct {
	slot chan struct{}
}

func newSerializer() *serializer {
	return &serializer{slot: make(chan struct{}, 1)}
}

func (s *serializer) acquire(ctx context.Context) error {
	select {
	case s.slot <- struct{}{}:
		return nil
	default:
	}
	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *serializer) tryAcquire() bool {
	select {
	case s.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *serializer) release() {
	select {
	case <-s.slot:
	default:
		panic("nvm: release of unheld serializer")
	}
}

func (s *serializer) held() bool {
	return len(s.slot) == 1
}
