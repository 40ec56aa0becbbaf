package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"quiz-arena/internal/questions"
	"quiz-arena/internal/sink"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// memorySink records sink calls from the dispatcher workers.
type memorySink struct {
	mu       sync.Mutex
	results  []sink.Result
	currency map[string]int
	events   []sink.Event
}

func newMemorySink() *memorySink {
	return &memorySink{currency: make(map[string]int)}
}

func (m *memorySink) RecordResult(_ context.Context, result sink.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
	return nil
}

func (m *memorySink) AddCurrency(_ context.Context, userID string, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currency[userID] += amount
	return nil
}

func (m *memorySink) RecordEvent(_ context.Context, event sink.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memorySink) Results() []sink.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sink.Result, len(m.results))
	copy(out, m.results)
	return out
}

func (m *memorySink) Currency(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currency[userID]
}

func (m *memorySink) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, event := range m.events {
		out = append(out, event.Type)
	}
	return out
}

// recordingBroadcaster captures orchestrator output per connection and room.
type recordingBroadcaster struct {
	mu         sync.Mutex
	direct     map[string][]Message
	broadcasts map[string][]Message
	rooms      map[string]map[string]struct{}
	closed     []string
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{
		direct:     make(map[string][]Message),
		broadcasts: make(map[string][]Message),
		rooms:      make(map[string]map[string]struct{}),
	}
}

func (r *recordingBroadcaster) Subscribe(code, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[code] == nil {
		r.rooms[code] = make(map[string]struct{})
	}
	r.rooms[code][connID] = struct{}{}
}

func (r *recordingBroadcaster) Unsubscribe(code, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms[code], connID)
}

func (r *recordingBroadcaster) CloseRoom(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
	r.closed = append(r.closed, code)
}

func (r *recordingBroadcaster) Send(connID string, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.direct[connID] = append(r.direct[connID], msg)
}

func (r *recordingBroadcaster) Broadcast(code string, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts[code] = append(r.broadcasts[code], msg)
}

func (r *recordingBroadcaster) sentTo(connID string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.direct[connID]))
	copy(out, r.direct[connID])
	return out
}

func (r *recordingBroadcaster) countBroadcast(code, msgType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, msg := range r.broadcasts[code] {
		if msg.Type == msgType {
			count++
		}
	}
	return count
}

func (r *recordingBroadcaster) lastBroadcast(code, msgType string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.broadcasts[code]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Type == msgType {
			return list[i], true
		}
	}
	return Message{}, false
}

func (r *recordingBroadcaster) subscribed(code, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[code][connID]
	return ok
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type harness struct {
	t     *testing.T
	orch  *Orchestrator
	clock fakeClock
	out   *recordingBroadcaster
	sink  *memorySink
	ctx   context.Context
}

func testOptions() Options {
	return Options{
		GracePeriod:     3 * time.Second,
		MaxParticipants: 50,
	}
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	var clock fakeClock = clockwork.NewFakeClock()
	out := newRecordingBroadcaster()
	recorder := newMemorySink()
	sinks := newSinkDispatcher(recorder, 1, 256, time.Second)
	sinks.Start()
	provider := questions.NewMemoryProvider(questions.DefaultSets()...)
	require.NoError(t, provider.Add(questions.Set{ID: "empty", Title: "Empty"}))
	orch := NewOrchestrator(opts, provider, out, sinks, clock)

	ctx, cancel := context.WithCancel(context.Background())
	go orch.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-orch.done
		_ = sinks.Close(context.Background())
	})
	return &harness{t: t, orch: orch, clock: clock, out: out, sink: recorder, ctx: context.Background()}
}

func (h *harness) create(connID, userID string) string {
	h.t.Helper()
	snap, err := h.orch.CreateSession(h.ctx, connID, CreateSessionRequest{
		QuestionSetID:   "basic-math",
		HostUserID:      userID,
		HostDisplayName: "Host " + userID,
		HostAvatarID:    "avatar-1",
	})
	require.NoError(h.t, err)
	return snap.Code
}

func (h *harness) join(connID, code, userID string) SessionSnapshot {
	h.t.Helper()
	snap, err := h.orch.JoinSession(h.ctx, connID, JoinSessionRequest{
		Code:        code,
		UserID:      userID,
		DisplayName: "Player " + userID,
		AvatarID:    "avatar-2",
	})
	require.NoError(h.t, err)
	return snap
}

func (h *harness) answer(connID, code string, index int, elapsed float64) error {
	return h.orch.SubmitAnswer(h.ctx, connID, SubmitAnswerRequest{
		Code:           code,
		AnswerIndex:    &index,
		ElapsedSeconds: &elapsed,
	})
}

func (h *harness) state(code string) SessionSnapshot {
	h.t.Helper()
	snap, err := h.orch.State(h.ctx, code)
	require.NoError(h.t, err)
	return snap
}

func (h *harness) waitForIndex(code string, index int) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		snap, err := h.orch.State(h.ctx, code)
		return err == nil && snap.CurrentQuestionIndex == index
	}, 2*time.Second, 5*time.Millisecond)
}

func playerByUser(snap SessionSnapshot, userID string) (ParticipantView, bool) {
	for _, player := range snap.Players {
		if player.UserID == userID {
			return player, true
		}
	}
	return ParticipantView{}, false
}
