package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	results  []Result
	currency map[string]int
	events   []Event
	err      error
}

func (r *recordingSink) RecordResult(_ context.Context, result Result) error {
	r.results = append(r.results, result)
	return r.err
}

func (r *recordingSink) AddCurrency(_ context.Context, userID string, amount int) error {
	if r.currency == nil {
		r.currency = map[string]int{}
	}
	r.currency[userID] += amount
	return r.err
}

func (r *recordingSink) RecordEvent(_ context.Context, event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestFanoutCallsEverySink(t *testing.T) {
	failing := errors.New("down")
	a := &recordingSink{}
	b := &recordingSink{err: failing}
	f := Fanout{a, b}

	err := f.RecordResult(context.Background(), Result{UserID: "u1", Score: 900})
	require.ErrorIs(t, err, failing)
	assert.Len(t, a.results, 1)
	assert.Len(t, b.results, 1)

	require.ErrorIs(t, f.AddCurrency(context.Background(), "u1", 90), failing)
	assert.Equal(t, 90, a.currency["u1"])

	require.NoError(t, Fanout{a}.RecordEvent(context.Background(), Event{Type: "session_started"}))
	assert.Len(t, a.events, 1)
}

func TestNopSink(t *testing.T) {
	var s Sink = Nop{}
	assert.NoError(t, s.RecordResult(context.Background(), Result{}))
	assert.NoError(t, s.AddCurrency(context.Background(), "u", 1))
	assert.NoError(t, s.RecordEvent(context.Background(), Event{}))
}

type fakePublisher struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakePublisher) PublishMsg(msg *nats.Msg) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

func TestNATSSinkSubjects(t *testing.T) {
	pub := &fakePublisher{}
	s := newNATSSink(pub, "arena")
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, s.RecordResult(ctx, Result{SessionCode: "ABC234", UserID: "u1", Score: 1000, Placement: 1, IsWinner: true}))
	require.NoError(t, s.AddCurrency(ctx, "u1", 100))
	require.NoError(t, s.RecordEvent(ctx, Event{SessionCode: "ABC234", Type: "session_finished"}))

	require.Len(t, pub.msgs, 3)
	assert.Equal(t, "arena.results.ABC234", pub.msgs[0].Subject)
	assert.Equal(t, "arena.currency", pub.msgs[1].Subject)
	assert.Equal(t, "arena.events.ABC234", pub.msgs[2].Subject)
	assert.Equal(t, "session_finished", pub.msgs[2].Header.Get("Event-Type"))

	var env struct {
		EventID     string          `json:"eventId"`
		EventType   string          `json:"eventType"`
		SessionCode string          `json:"sessionCode"`
		Timestamp   time.Time       `json:"timestamp"`
		Payload     json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(pub.msgs[0].Data, &env))
	assert.Equal(t, "game_result", env.EventType)
	assert.Equal(t, "ABC234", env.SessionCode)
	assert.True(t, fixed.Equal(env.Timestamp))
	assert.NotEmpty(t, env.EventID)

	var result Result
	require.NoError(t, json.Unmarshal(env.Payload, &result))
	assert.Equal(t, 1000, result.Score)
	assert.True(t, result.IsWinner)
}

func TestNATSSinkErrors(t *testing.T) {
	pub := &fakePublisher{err: nats.ErrConnectionClosed}
	s := newNATSSink(pub, "")
	err := s.AddCurrency(context.Background(), "u1", 10)
	require.ErrorIs(t, err, nats.ErrConnectionClosed)
	assert.Equal(t, "quiz.currency", pub.msgs[0].Subject)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.RecordEvent(ctx, Event{SessionCode: "X"}), context.Canceled)
	assert.Len(t, pub.msgs, 1)
}
