package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	pubsub "github.com/hannahhoward/go-pubsub"
	logging "github.com/ipfs/go-log/v2"
	"github.com/modern-go/reflect2"

	"github.com/dappforge/walletbridge/types"
)

var log = logging.Logger("eventbus")

// Handler receives lifecycle events for the topic it subscribed to.
type Handler func(evt *types.LifecycleEvent)

type subscriber struct {
	topic   string
	handler Handler
}

// Bus is the process-wide publish/subscribe channel for wallet lifecycle
// events. Delivery is synchronous and in subscription order; a handler that
// panics is recovered and logged so later handlers still run. Nothing is
// persisted, subscribers re-register on every start.
type Bus struct {
	ps *pubsub.PubSub
}

func NewBus() *Bus {
	return &Bus{ps: pubsub.New(dispatch)}
}

func dispatch(evt pubsub.Event, fn pubsub.SubscriberFn) error {
	event, ok := evt.(*types.LifecycleEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", evt)
	}
	sub, ok := fn.(subscriber)
	if !ok {
		return fmt.Errorf("unexpected subscriber type %T", fn)
	}
	if sub.topic != event.Topic {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("handler for %s panicked: %v", event.Topic, r)
		}
	}()
	sub.handler(event)
	return nil
}

// Subscribe registers a handler for a topic and returns its unsubscribe
// function.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	return b.ps.Subscribe(subscriber{topic: topic, handler: handler})
}

// Dispatch publishes body under topic to all current subscribers. The body is
// JSON-encoded into the event envelope; encoding failures are logged and the
// event is dropped.
func (b *Bus) Dispatch(topic string, body interface{}) {
	var payload json.RawMessage
	if !reflect2.IsNil(body) {
		data, err := json.Marshal(body)
		if err != nil {
			log.Errorf("marshal %s payload: %v", topic, err)
			return
		}
		payload = data
	}

	evt := &types.LifecycleEvent{
		ID:         uuid.New(),
		Topic:      topic,
		Payload:    payload,
		CreateTime: time.Now(),
	}
	if err := b.ps.Publish(evt); err != nil {
		log.Errorf("publish %s: %v", topic, err)
	}
}

// Shutdown detaches all subscribers.
func (b *Bus) Shutdown() {
	b.ps.Shutdown()
}
