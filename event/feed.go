// Package event implements the typed publish/subscribe feed that carries
// registry notifications to consumers such as the websocket stream.
package event

import "sync"

// Subscription represents a stream of events. The carrier of the events is
// typically a channel, but isn't part of the interface.
type Subscription interface {
	// Err returns the error channel. It is closed when the subscription ends.
	Err() <-chan error
	// Unsubscribe cancels the sending of events to the subscription channel.
	// It is safe to call more than once.
	Unsubscribe()
}

// Feed implements one-to-many event subscriptions for a single value type.
// The zero value is ready to use.
type Feed[T any] struct {
	mu   sync.Mutex
	subs map[*feedSub[T]]struct{}
}

// Subscribe adds a channel to the feed. Future calls to Send are delivered
// on the channel until the subscription is cancelled.
func (f *Feed[T]) Subscribe(ch chan<- T) Subscription {
	sub := &feedSub[T]{
		feed: f,
		ch:   ch,
		errc: make(chan error),
		quit: make(chan struct{}),
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[*feedSub[T]]struct{})
	}
	f.subs[sub] = struct{}{}
	return sub
}

// Send delivers value to all subscribed channels and returns the number of
// subscribers the value was sent to. Delivery to a subscriber blocks until
// the channel accepts the value or the subscription is cancelled.
func (f *Feed[T]) Send(value T) (nsent int) {
	f.mu.Lock()
	subs := make([]*feedSub[T], 0, len(f.subs))
	for s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- value:
			nsent++
		case <-s.quit:
		}
	}
	return nsent
}

func (f *Feed[T]) remove(sub *feedSub[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, sub)
}

type feedSub[T any] struct {
	feed *Feed[T]
	ch   chan<- T
	errc chan error
	quit chan struct{}
	once sync.Once
}

func (s *feedSub[T]) Err() <-chan error { return s.errc }

func (s *feedSub[T]) Unsubscribe() {
	s.once.Do(func() {
		s.feed.remove(s)
		close(s.quit)
		close(s.errc)
	})
}
