package localstore

import (
	"context"
	"sync"
	"time"

	"github.com/mbolis/surveyforge/log"
)

// Saver writes the latest scheduled value to a key once no newer value has
// arrived for the configured delay.
type Saver struct {
	store  Store
	key    string
	delay  time.Duration
	onDone func(error)

	mu      sync.Mutex
	timer   *time.Timer
	pending []byte

	// held across store writes so a Clear never races a running Flush
	writeMu sync.Mutex
}

// NewSaver creates a debounced writer. onDone, if set, is called after
// every write with its outcome; it runs on the timer goroutine.
func NewSaver(store Store, key string, delay time.Duration, onDone func(error)) *Saver {
	return &Saver{store: store, key: key, delay: delay, onDone: onDone}
}

func (s *Saver) Key() string { return s.key }

// Schedule replaces any pending value and restarts the delay.
func (s *Saver) Schedule(value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = value
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		if err := s.Flush(context.Background()); err != nil {
			log.WithError(err).Warnf("autosave.%s", s.key)
		}
	})
}

// Flush writes the pending value now, if there is one.
func (s *Saver) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	s.mu.Lock()
	value := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if value == nil {
		s.writeMu.Unlock()
		return nil
	}
	err := s.store.Set(ctx, s.key, value)
	s.writeMu.Unlock()

	if s.onDone != nil {
		s.onDone(err)
	}
	return err
}

// Stop drops the pending value without writing it.
func (s *Saver) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Clear drops the pending value and deletes the stored one. A write already
// in progress finishes first.
func (s *Saver) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.Stop()
	return s.store.Delete(ctx, s.key)
}
