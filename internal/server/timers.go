package server

import (
	"github.com/rs/zerolog/log"
)

// armRoundTimer schedules the grace-period advance for the current round.
// It is armed at most once per round.
func (o *Orchestrator) armRoundTimer(session *GameSession) {
	round := session.CurrentQuestionIndex
	if session.PendingAdvance == round {
		return
	}
	o.cancelTimer(session.Code)
	session.PendingAdvance = round
	code := session.Code
	o.timers[code] = o.clock.AfterFunc(o.opts.GracePeriod, func() {
		o.post(roundTimerFired{code: code, round: round})
	})
	log.Debug().
		Str("session_code", code).
		Int("round", round).
		Dur("grace_period", o.opts.GracePeriod).
		Msg("round timer armed")
}

func (o *Orchestrator) cancelTimer(code string) {
	if timer, ok := o.timers[code]; ok {
		timer.Stop()
		delete(o.timers, code)
	}
}

func (o *Orchestrator) stopTimers() {
	for code, timer := range o.timers {
		timer.Stop()
		delete(o.timers, code)
	}
}

// onRoundTimer advances only if the session is still waiting on that round.
func (o *Orchestrator) onRoundTimer(fired roundTimerFired) {
	session, ok := o.store.Get(fired.code)
	if !ok || session.Status != statusPlaying ||
		session.CurrentQuestionIndex != fired.round ||
		session.PendingAdvance != fired.round {
		log.Debug().
			Str("session_code", fired.code).
			Int("round", fired.round).
			Msg("stale round timer ignored")
		return
	}
	delete(o.timers, fired.code)
	o.advanceRound(session)
}

// sweepIdle evicts sessions with no activity for longer than the idle TTL.
func (o *Orchestrator) sweepIdle() {
	if o.opts.IdleTTL <= 0 {
		return
	}
	now := o.clock.Now().UTC()
	expired := make([]*GameSession, 0)
	o.store.Each(func(session *GameSession) bool {
		if now.Sub(session.LastActivity) >= o.opts.IdleTTL {
			expired = append(expired, session)
		}
		return true
	})
	for _, session := range expired {
		o.out.Broadcast(session.Code, newMessage(msgSessionClosed, session.Code, now, sessionClosedData{Reason: "idle"}))
		o.removeSession(session, "idle")
	}
	if len(expired) > 0 {
		log.Info().Int("evicted", len(expired)).Int("remaining", o.store.Len()).Msg("idle sessions swept")
	}
}
