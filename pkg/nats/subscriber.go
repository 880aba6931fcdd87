package nats

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

const CommandSubject = "ppg.commands"

// RequestHandler answers one request. A nil reply sends nothing back.
type RequestHandler func(ctx context.Context, data []byte) []byte

// Subscriber serves request/reply commands over core NATS.
type Subscriber struct {
	nc   *nats.Conn
	subs []*nats.Subscription
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc}, nil
}

// Subscribe registers handler on subject. Replies go to the request's
// reply subject when it has one.
func (s *Subscriber) Subscribe(subject string, handler RequestHandler) error {
	sub, err := s.nc.Subscribe(subject, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		reply := handler(ctx, msg.Data)
		if reply == nil || msg.Reply == "" {
			return
		}
		if err := msg.Respond(reply); err != nil {
			log.Printf("Failed to respond on %s: %v", subject, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	s.subs = append(s.subs, sub)
	log.Printf("Subscribed to %s", subject)
	return nil
}

// Close drains the subscriptions and closes the connection.
func (s *Subscriber) Close() {
	if s.nc == nil {
		return
	}
	for _, sub := range s.subs {
		_ = sub.Drain()
	}
	s.nc.Close()
}
