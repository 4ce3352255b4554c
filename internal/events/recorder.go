package events

import (
	"context"
	"sync"
)

type Published struct {
	Topic string
	Key   string
	Event any
}

// Recorder keeps every event in memory; handy in tests and dry runs.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}
