// Package live implements cancellable full-snapshot subscriptions: every
// publish re-delivers the entire current value to all subscribers, and a new
// subscriber is replayed the latest value on attach.
package live

import "sync"

type subscriber[T any] struct {
	mu     sync.Mutex
	closed bool
	fn     func(T)
}

func (s *subscriber[T]) deliver(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(v)
}

func (s *subscriber[T]) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Broker fans a snapshot value out to registered subscribers.
type Broker[T any] struct {
	mu   sync.Mutex
	subs map[*subscriber[T]]struct{}
	last T
	has  bool
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[*subscriber[T]]struct{})}
}

// Subscribe registers fn and returns a cancel func. Cancelling stops further
// delivery immediately, even if a publish is already in flight. If a value has
// been published before, fn receives it right away.
//
// Registration and replay are atomic with respect to Publish: the subscriber
// lock is held across both, so a publish racing the attach queues behind the
// replay and the newer snapshot is always delivered last.
func (b *Broker[T]) Subscribe(fn func(T)) (cancel func()) {
	sub := &subscriber[T]{fn: fn}

	sub.mu.Lock()
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	last, has := b.last, b.has
	b.mu.Unlock()
	if has {
		sub.fn(last)
	}
	sub.mu.Unlock()

	return func() {
		sub.close()
		b.remove(sub)
	}
}

// SubscribeCurrent registers fn and delivers the value returned by load to
// the new subscriber alone, with the same atomicity as replay. Existing
// subscribers are not notified. On load failure the subscriber is discarded.
func (b *Broker[T]) SubscribeCurrent(fn func(T), load func() (T, error)) (cancel func(), err error) {
	sub := &subscriber[T]{fn: fn}

	sub.mu.Lock()
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	v, err := load()
	if err != nil {
		sub.closed = true
		sub.mu.Unlock()
		b.remove(sub)
		return nil, err
	}
	sub.fn(v)
	sub.mu.Unlock()

	return func() {
		sub.close()
		b.remove(sub)
	}, nil
}

// Publish delivers v to every live subscriber and records it for replay.
func (b *Broker[T]) Publish(v T) {
	b.mu.Lock()
	b.last = v
	b.has = true
	subs := make([]*subscriber[T], 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.deliver(v)
	}
}

func (b *Broker[T]) remove(sub *subscriber[T]) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}
