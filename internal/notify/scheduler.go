package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"bidtrack/api/internal/store"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultWindow   = 60 * time.Second
)

// Scheduler polls the store for due reminders. A reminder fires when now is
// inside [notificationTime, notificationTime+window) for a push-enabled
// event that has not been marked notified. The persisted marker, not the
// poll timing, is what guarantees at-most-once: a missed tick only delays a
// reminder by up to one interval.
type Scheduler struct {
	store    *store.Store
	notifier Notifier
	interval time.Duration
	window   time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Scheduler)

func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) { s.interval = interval }
}

func WithWindow(window time.Duration) Option {
	return func(s *Scheduler) { s.window = window }
}

// WithClock overrides the scheduler's clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(st *store.Store, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    st,
		notifier: notifier,
		interval: DefaultInterval,
		window:   DefaultWindow,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the poll loop. Starting again first stops the previous
// loop and waits for it to exit, so two pollers never run at once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if fired := s.Poll(runCtx); fired > 0 {
					log.Printf("notify: fired %d reminder(s)", fired)
				}
			}
		}
	}()
}

// Stop cancels the running poll loop, if any, and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// Poll runs one scan of the store and returns how many reminders fired.
func (s *Scheduler) Poll(ctx context.Context) int {
	now := s.now()
	fired := 0
	for _, event := range s.store.ListEvents() {
		if !s.due(event, now) {
			continue
		}
		if !s.notifier.Granted() {
			// Permission denied: skip silently and leave the event
			// unclaimed so it can fire once permission is granted.
			continue
		}
		claimed, err := s.store.MarkEventNotified(ctx, event.ID)
		if err != nil {
			log.Printf("notify: marking event %s failed: %v", event.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		if err := s.fire(event); err != nil {
			log.Printf("notify: firing event %s failed: %v", event.ID, err)
			continue
		}
		fired++
	}
	return fired
}

func (s *Scheduler) due(event store.CalendarEvent, now time.Time) bool {
	if !event.PushNotification || event.Notified || event.NotificationTime == nil {
		return false
	}
	elapsed := now.Sub(*event.NotificationTime)
	return elapsed >= 0 && elapsed < s.window
}

func (s *Scheduler) fire(event store.CalendarEvent) error {
	body := fmt.Sprintf("%s is due %s.", event.Title, event.Date.UTC().Format("Mon, 02 Jan 2006"))
	return s.notifier.Fire("Upcoming deadline: "+event.Title, body, event.ID)
}
