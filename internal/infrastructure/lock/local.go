package lock

import (
	"context"
	"sync"
)

// LocalLocker is an in-process keyed mutex. Waiting honors ctx.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i], true)
		}
	}
	for _, k := range keys {
		if err := l.acquire(ctx, k); err != nil {
			release()
			return nil, err
		}
		held = append(held, k)
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *LocalLocker) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(key, false)
		return ctx.Err()
	}
}

func (l *LocalLocker) release(key string, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[key]
	if held {
		<-s.ch
	}
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
