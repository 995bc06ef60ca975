package events

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

// Handler receives the payload published for a topic it subscribed to.
type Handler func(payload any)

// Bus is a synchronous publish/subscribe registry keyed by Topic.
//
// Dispatch is same-goroutine and in registration order for handlers of the
// same topic; there is no cross-topic ordering guarantee. A handler that
// panics is recovered and logged and never prevents the remaining handlers
// from running, nor does the panic reach the publisher: nothing is allowed
// to throw out of the tick loop.
//
// Handlers are identified by their code pointer, so registering the same
// named function or stored closure twice for one topic is a no-op. Construct
// one Bus at startup and inject it; there is no package-level instance.
type Bus struct {
	mu     sync.Mutex
	log    *logger.Logger
	topics map[Topic][]subscription
}

type subscription struct {
	fn   Handler
	key  uintptr
	once bool
}

// NewBus creates an empty bus.
func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		log:    log,
		topics: make(map[Topic][]subscription),
	}
}

// handlerKey identifies a handler by its code pointer. Two closures built
// from the same func literal, or the same method value on two receivers,
// share a key: see the Subscribe contract.
func handlerKey(h Handler) uintptr {
	return reflect.ValueOf(h).Pointer()
}

// Subscribe registers a handler for a topic. Duplicate registrations of the
// same handler are ignored. Identity is the handler's code pointer, so two
// distinct closures created from one func literal count as the same handler
// on a given topic; a component that needs several instances of one handler
// on the same topic must use distinct func literals (one closure per topic,
// as the wiring loops here do, is always safe).
func (b *Bus) Subscribe(topic Topic, h Handler) {
	b.subscribe(topic, h, false)
}

// SubscribeOnce registers a handler that is removed after its first
// invocation.
func (b *Bus) SubscribeOnce(topic Topic, h Handler) {
	b.subscribe(topic, h, true)
}

func (b *Bus) subscribe(topic Topic, h Handler, once bool) {
	if h == nil {
		return
	}
	key := handlerKey(h)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.topics[topic] {
		if sub.key == key {
			return
		}
	}
	b.topics[topic] = append(b.topics[topic], subscription{fn: h, key: key, once: once})
}

// Unsubscribe removes a specific handler from a topic. No-op if absent.
func (b *Bus) Unsubscribe(topic Topic, h Handler) {
	if h == nil {
		return
	}
	key := handlerKey(h)
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.topics[topic]
	for i, sub := range subs {
		if sub.key == key {
			b.topics[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish invokes every handler currently registered for the topic,
// synchronously, on the calling goroutine, in registration order. Handlers
// may publish further notifications from inside their invocation.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.Lock()
	subs := b.topics[topic]
	// Snapshot so nested Subscribe/Unsubscribe calls cannot disturb this
	// dispatch pass.
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	// once-handlers are dropped before dispatch so a nested publish of the
	// same topic cannot fire them twice.
	remaining := subs[:0]
	for _, sub := range subs {
		if !sub.once {
			remaining = append(remaining, sub)
		}
	}
	b.topics[topic] = remaining
	b.mu.Unlock()

	for _, sub := range snapshot {
		b.invoke(topic, sub, payload)
	}
}

func (b *Bus) invoke(topic Topic, sub subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("handler panic",
				zap.String("topic", string(topic)),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	sub.fn(payload)
}

// Clear drops every registration. Used at teardown.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = make(map[Topic][]subscription)
}

// SubscriberCount returns the number of handlers registered for a topic.
// Useful in tests and diagnostics.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}
