package events

import (
	"sync"
	"sync/atomic"

	"github.com/kcaldas/devconsole/pkg/logging"
)

const defaultTopicBuffer = 256

// EventHandler is a function that handles an event
type EventHandler func(event interface{})

// Publisher allows publishing events
type Publisher interface {
	Publish(eventType string, event interface{})
}

// Subscriber allows subscribing to events. The returned function unsubscribes.
type Subscriber interface {
	Subscribe(eventType string, handler EventHandler) func()
}

// EventBus provides both publishing and subscribing
type EventBus interface {
	Publisher
	Subscriber
}

type handlerInfo struct {
	id      int
	handler EventHandler
}

// InMemoryBus delivers events in order per topic on a dedicated worker goroutine,
// so publishers (the store) never wait on presentation code.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string][]handlerInfo
	workers     map[string]*topicWorker
	bufferSize  int
	nextID      int
	closed      bool
	dropped     atomic.Int64
	logger      logging.Logger
}

// NewEventBus creates a new event bus with the default buffer size.
func NewEventBus() *InMemoryBus {
	return NewEventBusWithBuffer(defaultTopicBuffer)
}

// NewEventBusWithBuffer allows configuring the per-topic worker queue size.
// A buffer of at least 1 is enforced to avoid unbuffered sends.
func NewEventBusWithBuffer(buffer int) *InMemoryBus {
	if buffer < 1 {
		buffer = 1
	}
	return &InMemoryBus{
		subscribers: make(map[string][]handlerInfo),
		workers:     make(map[string]*topicWorker),
		bufferSize:  buffer,
		nextID:      1,
		logger:      logging.NewComponentLogger("events"),
	}
}

// Subscribe adds a handler for a specific event type.
func (b *InMemoryBus) Subscribe(eventType string, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[eventType] = append(b.subscribers[eventType], handlerInfo{id: id, handler: handler})

	return func() {
		b.unsubscribe(eventType, id)
	}
}

func (b *InMemoryBus) unsubscribe(eventType string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[eventType]
	for i, info := range subs {
		if info.id == id {
			b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[eventType]) == 0 {
		delete(b.subscribers, eventType)
	}
}

// Publish queues the event for every current subscriber of the topic.
// Publishing is non-blocking: if the topic queue is full, the event is dropped.
func (b *InMemoryBus) Publish(eventType string, event interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	subs := b.subscribers[eventType]
	if len(subs) == 0 {
		return
	}
	handlers := make([]EventHandler, len(subs))
	for i, info := range subs {
		handlers[i] = info.handler
	}

	worker, ok := b.workers[eventType]
	if !ok {
		worker = newTopicWorker(b.bufferSize, b.logger)
		b.workers[eventType] = worker
	}

	select {
	case worker.ch <- eventEnvelope{event: event, handlers: handlers}:
	default:
		b.dropped.Add(1)
		b.logger.Warn("Event bus queue full; dropping event", "topic", eventType)
	}
}

// DroppedCount returns the number of events dropped due to full queues.
func (b *InMemoryBus) DroppedCount() int64 {
	return b.dropped.Load()
}

// Shutdown delivers everything already queued and stops all topic workers.
// Later publishes are ignored.
func (b *InMemoryBus) Shutdown() {
	b.mu.Lock()
	b.closed = true
	workers := make([]*topicWorker, 0, len(b.workers))
	for _, w := range b.workers {
		workers = append(workers, w)
	}
	b.mu.Unlock()

	for _, w := range workers {
		w.stop()
	}
}

type eventEnvelope struct {
	event    interface{}
	handlers []EventHandler
}

type topicWorker struct {
	ch       chan eventEnvelope
	wg       sync.WaitGroup
	stopOnce sync.Once
	logger   logging.Logger
}

func newTopicWorker(buffer int, logger logging.Logger) *topicWorker {
	w := &topicWorker{
		ch:     make(chan eventEnvelope, buffer),
		logger: logger,
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *topicWorker) run() {
	defer w.wg.Done()
	for env := range w.ch {
		for _, handler := range env.handlers {
			w.deliver(handler, env.event)
		}
	}
}

func (w *topicWorker) deliver(h EventHandler, event interface{}) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Event handler panicked", "panic", r)
		}
	}()
	h(event)
}

func (w *topicWorker) stop() {
	w.stopOnce.Do(func() {
		close(w.ch)
		w.wg.Wait()
	})
}
