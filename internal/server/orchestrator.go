package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-arena/internal/config"
	"quiz-arena/internal/questions"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Broadcaster delivers outbound messages. Implementations must not block.
type Broadcaster interface {
	Subscribe(code, connID string)
	Unsubscribe(code, connID string)
	CloseRoom(code string)
	Send(connID string, msg Message)
	Broadcast(code string, msg Message)
}

type Options struct {
	GracePeriod     time.Duration
	MaxParticipants int
	IdleTTL         time.Duration
	SweepInterval   time.Duration
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		GracePeriod:     time.Duration(cfg.GracePeriodSeconds) * time.Second,
		MaxParticipants: cfg.MaxParticipants,
		IdleTTL:         time.Duration(cfg.SessionIdleTTLMinutes) * time.Minute,
		SweepInterval:   time.Duration(cfg.SweepIntervalSeconds) * time.Second,
	}
}

type OrchestratorStats struct {
	ActiveSessions int            `json:"activeSessions"`
	ByStatus       map[string]int `json:"byStatus"`
	BoundConns     int            `json:"boundConnections"`
}

// Orchestrator owns every live session. All state is touched only by the
// goroutine running Run; callers talk to it through typed commands.
type Orchestrator struct {
	opts     Options
	clock    clockwork.Clock
	provider questions.Provider
	out      Broadcaster
	sinks    *sinkDispatcher

	store  *Store
	conns  map[string]string
	timers map[string]clockwork.Timer

	commands chan command
	done     chan struct{}
}

func NewOrchestrator(opts Options, provider questions.Provider, out Broadcaster, sinks *sinkDispatcher, clock clockwork.Clock) *Orchestrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Orchestrator{
		opts:     opts,
		clock:    clock,
		provider: provider,
		out:      out,
		sinks:    sinks,
		store:    NewStore(),
		conns:    make(map[string]string),
		timers:   make(map[string]clockwork.Timer),
		commands: make(chan command, 256),
		done:     make(chan struct{}),
	}
}

type command interface{}

type outcome struct {
	snapshot SessionSnapshot
	err      error
}

type createSessionCmd struct {
	connID    string
	req       CreateSessionRequest
	questions []questions.Question
	reply     chan outcome
}

type joinSessionCmd struct {
	connID string
	req    JoinSessionRequest
	reply  chan outcome
}

type stateCmd struct {
	code  string
	reply chan outcome
}

type startSessionCmd struct {
	connID string
	code   string
	reply  chan outcome
}

type submitAnswerCmd struct {
	connID         string
	code           string
	answerIndex    int
	elapsedSeconds float64
	reply          chan outcome
}

type advanceQuestionCmd struct {
	connID string
	code   string
	reply  chan outcome
}

type disconnectCmd struct {
	connID string
	reply  chan outcome
}

type statsCmd struct {
	reply chan OrchestratorStats
}

// roundTimerFired is posted by the grace timer for the round it was armed in.
type roundTimerFired struct {
	code  string
	round int
}

// Run processes commands until ctx is cancelled. It must be called once.
func (o *Orchestrator) Run(ctx context.Context) {
	defer close(o.done)
	var sweep <-chan time.Time
	if o.opts.IdleTTL > 0 && o.opts.SweepInterval > 0 {
		ticker := o.clock.NewTicker(o.opts.SweepInterval)
		defer ticker.Stop()
		sweep = ticker.Chan()
	}
	log.Info().
		Dur("grace_period", o.opts.GracePeriod).
		Int("max_participants", o.opts.MaxParticipants).
		Dur("idle_ttl", o.opts.IdleTTL).
		Msg("session orchestrator started")
	for {
		select {
		case <-ctx.Done():
			o.stopTimers()
			log.Info().Int("sessions", o.store.Len()).Msg("session orchestrator stopped")
			return
		case cmd := <-o.commands:
			o.handle(cmd)
		case <-sweep:
			o.sweepIdle()
		}
	}
}

func (o *Orchestrator) handle(cmd command) {
	switch c := cmd.(type) {
	case createSessionCmd:
		c.reply <- o.createSession(c)
	case joinSessionCmd:
		c.reply <- o.joinSession(c)
	case stateCmd:
		session, ok := o.store.Get(c.code)
		if !ok {
			c.reply <- outcome{err: ErrSessionNotFound}
			return
		}
		c.reply <- outcome{snapshot: snapshot(session)}
	case startSessionCmd:
		c.reply <- o.startSession(c)
	case submitAnswerCmd:
		c.reply <- o.submitAnswer(c)
	case advanceQuestionCmd:
		c.reply <- o.advanceQuestion(c)
	case disconnectCmd:
		o.release(c.connID)
		c.reply <- outcome{}
	case statsCmd:
		c.reply <- o.stats()
	case roundTimerFired:
		o.onRoundTimer(c)
	default:
		log.Error().Str("command", fmt.Sprintf("%T", cmd)).Msg("unknown orchestrator command")
	}
}

func (o *Orchestrator) exec(ctx context.Context, cmd command, reply chan outcome) (SessionSnapshot, error) {
	select {
	case o.commands <- cmd:
	case <-ctx.Done():
		return SessionSnapshot{}, ctx.Err()
	case <-o.done:
		return SessionSnapshot{}, ErrOrchestratorStopped
	}
	// A queued command always runs; its outcome is reported even after ctx expires.
	select {
	case res := <-reply:
		return res.snapshot, res.err
	case <-o.done:
		return SessionSnapshot{}, ErrOrchestratorStopped
	}
}

// post is used by timer callbacks, which have no caller to report to.
func (o *Orchestrator) post(cmd command) {
	select {
	case o.commands <- cmd:
	case <-o.done:
	}
}

// CreateSession loads the question set outside the loop, then registers a
// waiting session hosted by connID.
func (o *Orchestrator) CreateSession(ctx context.Context, connID string, req CreateSessionRequest) (SessionSnapshot, error) {
	list, err := o.provider.Questions(ctx, req.QuestionSetID)
	if err != nil {
		if errors.Is(err, questions.ErrSetNotFound) {
			return SessionSnapshot{}, ErrQuestionSetNotFound
		}
		return SessionSnapshot{}, fmt.Errorf("load question set %s: %w", req.QuestionSetID, err)
	}
	if len(list) == 0 {
		return SessionSnapshot{}, ErrQuestionSetEmpty
	}
	reply := make(chan outcome, 1)
	return o.exec(ctx, createSessionCmd{connID: connID, req: req, questions: list, reply: reply}, reply)
}

func (o *Orchestrator) JoinSession(ctx context.Context, connID string, req JoinSessionRequest) (SessionSnapshot, error) {
	reply := make(chan outcome, 1)
	return o.exec(ctx, joinSessionCmd{connID: connID, req: req, reply: reply}, reply)
}

func (o *Orchestrator) State(ctx context.Context, code string) (SessionSnapshot, error) {
	reply := make(chan outcome, 1)
	return o.exec(ctx, stateCmd{code: normalizeCode(code), reply: reply}, reply)
}

func (o *Orchestrator) StartSession(ctx context.Context, connID, code string) error {
	reply := make(chan outcome, 1)
	_, err := o.exec(ctx, startSessionCmd{connID: connID, code: normalizeCode(code), reply: reply}, reply)
	return err
}

func (o *Orchestrator) SubmitAnswer(ctx context.Context, connID string, req SubmitAnswerRequest) error {
	answer := -1
	if req.AnswerIndex != nil {
		answer = *req.AnswerIndex
	}
	elapsed := 0.0
	if req.ElapsedSeconds != nil {
		elapsed = *req.ElapsedSeconds
	}
	reply := make(chan outcome, 1)
	_, err := o.exec(ctx, submitAnswerCmd{
		connID:         connID,
		code:           normalizeCode(req.Code),
		answerIndex:    answer,
		elapsedSeconds: elapsed,
		reply:          reply,
	}, reply)
	return err
}

func (o *Orchestrator) AdvanceQuestion(ctx context.Context, connID, code string) error {
	reply := make(chan outcome, 1)
	_, err := o.exec(ctx, advanceQuestionCmd{connID: connID, code: normalizeCode(code), reply: reply}, reply)
	return err
}

func (o *Orchestrator) Disconnect(ctx context.Context, connID string) error {
	reply := make(chan outcome, 1)
	_, err := o.exec(ctx, disconnectCmd{connID: connID, reply: reply}, reply)
	return err
}

func (o *Orchestrator) Stats(ctx context.Context) (OrchestratorStats, error) {
	reply := make(chan OrchestratorStats, 1)
	select {
	case o.commands <- statsCmd{reply: reply}:
	case <-ctx.Done():
		return OrchestratorStats{}, ctx.Err()
	case <-o.done:
		return OrchestratorStats{}, ErrOrchestratorStopped
	}
	select {
	case stats := <-reply:
		return stats, nil
	case <-ctx.Done():
		return OrchestratorStats{}, ctx.Err()
	case <-o.done:
		return OrchestratorStats{}, ErrOrchestratorStopped
	}
}

func (o *Orchestrator) stats() OrchestratorStats {
	stats := OrchestratorStats{
		ActiveSessions: o.store.Len(),
		ByStatus:       map[string]int{statusWaiting: 0, statusPlaying: 0, statusFinished: 0},
		BoundConns:     len(o.conns),
	}
	o.store.Each(func(session *GameSession) bool {
		stats.ByStatus[session.Status]++
		return true
	})
	return stats
}
