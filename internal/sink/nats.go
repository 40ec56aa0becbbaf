package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

// Connect dials NATS with reconnect handling that logs through zerolog.
func Connect(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("quiz-arena"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

type msgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSSink publishes results, currency credits and events as JSON envelopes
// under <prefix>.results.<code>, <prefix>.currency and <prefix>.events.<code>.
type NATSSink struct {
	pub    msgPublisher
	prefix string
	now    func() time.Time
}

func NewNATSSink(nc *nats.Conn, prefix string) *NATSSink {
	return newNATSSink(nc, prefix)
}

func newNATSSink(pub msgPublisher, prefix string) *NATSSink {
	if prefix == "" {
		prefix = "quiz"
	}
	return &NATSSink{pub: pub, prefix: prefix, now: func() time.Time { return time.Now().UTC() }}
}

type envelope struct {
	EventID     string    `json:"eventId"`
	EventType   string    `json:"eventType"`
	SessionCode string    `json:"sessionCode,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload"`
}

func (s *NATSSink) RecordResult(ctx context.Context, result Result) error {
	subject := fmt.Sprintf("%s.results.%s", s.prefix, result.SessionCode)
	return s.publish(ctx, subject, "game_result", result.SessionCode, result)
}

func (s *NATSSink) AddCurrency(ctx context.Context, userID string, amount int) error {
	subject := fmt.Sprintf("%s.currency", s.prefix)
	payload := map[string]any{"userId": userID, "amount": amount}
	return s.publish(ctx, subject, "currency_awarded", "", payload)
}

func (s *NATSSink) RecordEvent(ctx context.Context, event Event) error {
	subject := fmt.Sprintf("%s.events.%s", s.prefix, event.SessionCode)
	return s.publish(ctx, subject, event.Type, event.SessionCode, event)
}

func (s *NATSSink) publish(ctx context.Context, subject, eventType, code string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := envelope{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		SessionCode: code,
		Timestamp:   s.now(),
		Payload:     payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{eventType},
			"Event-ID":   []string{env.EventID},
		},
	}
	if err := s.pub.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}
	log.Debug().
		Str("subject", subject).
		Str("event_id", env.EventID).
		Msg("published to NATS")
	return nil
}
