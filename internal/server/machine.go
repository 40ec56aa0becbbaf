package server

import (
	"sort"
	"strings"

	"quiz-arena/internal/sink"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) createSession(c createSessionCmd) outcome {
	now := o.clock.Now().UTC()
	mode := strings.TrimSpace(c.req.GameMode)
	if mode == "" {
		mode = defaultGameMode
	}
	session := &GameSession{
		ID:               uuid.NewString(),
		HostConnectionID: c.connID,
		HostUserID:       c.req.HostUserID,
		QuestionSetID:    c.req.QuestionSetID,
		GameMode:         mode,
		Status:           statusWaiting,
		Questions:        c.questions,
		PendingAdvance:   noPendingAdvance,
		CreatedAt:        now,
		LastActivity:     now,
		Players: []Participant{{
			ConnectionID: c.connID,
			UserID:       c.req.HostUserID,
			DisplayName:  c.req.HostDisplayName,
			AvatarID:     c.req.HostAvatarID,
			IsHost:       true,
			JoinedAt:     now,
		}},
	}
	code, err := o.store.Create(session)
	if err != nil {
		return outcome{err: err}
	}
	o.bind(c.connID, code)

	snap := snapshot(session)
	o.out.Send(c.connID, newMessage(msgSessionCreated, code, now, sessionCreatedData{Code: code, Session: snap}))
	log.Info().
		Str("session_code", code).
		Str("user_id", session.HostUserID).
		Str("question_set_id", session.QuestionSetID).
		Int("questions", len(session.Questions)).
		Msg("session created")
	o.recordEvent(session, session.HostUserID, "session_created", map[string]any{
		"questionSetId": session.QuestionSetID,
		"gameMode":      session.GameMode,
	})
	return outcome{snapshot: snap}
}

func (o *Orchestrator) joinSession(c joinSessionCmd) outcome {
	code := normalizeCode(c.req.Code)
	session, ok := o.store.Get(code)
	if !ok {
		return outcome{err: ErrSessionNotFound}
	}
	now := o.clock.Now().UTC()

	if existing := session.participantByUser(c.req.UserID); existing != nil {
		o.detachConnection(session, c.connID, existing.UserID)
		previous := existing.ConnectionID
		if previous != "" && previous != c.connID && o.conns[previous] == code {
			delete(o.conns, previous)
			o.out.Unsubscribe(code, previous)
		}
		existing.ConnectionID = c.connID
		if existing.IsHost {
			session.HostConnectionID = c.connID
		}
		userID := existing.UserID
		o.bind(c.connID, code)
		o.touch(session)

		snap := snapshot(session)
		o.out.Send(c.connID, newMessage(msgSessionJoined, code, now, sessionData{Session: snap}))
		switch session.Status {
		case statusPlaying:
			if round, ok := roundView(session); ok {
				o.out.Send(c.connID, newMessage(msgRoundStarted, code, now, round))
			}
		case statusFinished:
			o.out.Send(c.connID, newMessage(msgSessionFinished, code, now, sessionFinishedData{Ranking: rankingView(session.Ranking)}))
		}
		log.Info().
			Str("session_code", code).
			Str("user_id", userID).
			Str("connection_id", c.connID).
			Str("status", session.Status).
			Msg("participant reconnected")
		return outcome{snapshot: snap}
	}

	if session.Status != statusWaiting {
		return outcome{err: ErrSessionAlreadyStarted}
	}
	if o.opts.MaxParticipants > 0 && len(session.Players) >= o.opts.MaxParticipants {
		return outcome{err: ErrSessionFull}
	}
	o.detachConnection(session, c.connID, c.req.UserID)
	participant := Participant{
		ConnectionID: c.connID,
		UserID:       c.req.UserID,
		DisplayName:  c.req.DisplayName,
		AvatarID:     c.req.AvatarID,
		JoinedAt:     now,
	}
	session.Players = append(session.Players, participant)
	o.bind(c.connID, code)
	o.touch(session)

	snap := snapshot(session)
	o.out.Send(c.connID, newMessage(msgSessionJoined, code, now, sessionData{Session: snap}))
	o.out.Broadcast(code, newMessage(msgParticipantJoined, code, now, participantJoinedData{
		Participant: participantView(participant),
		Players:     snap.Players,
	}))
	log.Info().
		Str("session_code", code).
		Str("user_id", participant.UserID).
		Int("players", len(session.Players)).
		Msg("participant joined")
	o.recordEvent(session, participant.UserID, "participant_joined", map[string]any{
		"displayName": participant.DisplayName,
	})
	return outcome{snapshot: snap}
}

func (o *Orchestrator) startSession(c startSessionCmd) outcome {
	session, ok := o.store.Get(c.code)
	if !ok {
		return outcome{err: ErrSessionNotFound}
	}
	participant := session.participantByConnection(c.connID)
	if participant == nil {
		return outcome{err: ErrNotAParticipant}
	}
	if !participant.IsHost {
		return outcome{err: ErrNotHost}
	}
	if session.Status != statusWaiting {
		return outcome{err: ErrInvalidState}
	}
	session.Status = statusPlaying
	session.CurrentQuestionIndex = 0
	session.PendingAdvance = noPendingAdvance
	session.resetAnswers()
	o.touch(session)

	now := o.clock.Now().UTC()
	if round, ok := roundView(session); ok {
		o.out.Broadcast(session.Code, newMessage(msgRoundStarted, session.Code, now, round))
	}
	log.Info().
		Str("session_code", session.Code).
		Int("players", len(session.Players)).
		Msg("session started")
	o.recordEvent(session, participant.UserID, "session_started", map[string]any{
		"players": len(session.Players),
	})
	return outcome{snapshot: snapshot(session)}
}

func (o *Orchestrator) submitAnswer(c submitAnswerCmd) outcome {
	session, ok := o.store.Get(c.code)
	if !ok {
		return outcome{err: ErrSessionNotFound}
	}
	participant := session.participantByConnection(c.connID)
	if participant == nil {
		return outcome{err: ErrNotAParticipant}
	}
	if session.Status != statusPlaying {
		return outcome{err: ErrInvalidState}
	}
	if participant.HasAnsweredCurrent {
		log.Debug().
			Str("session_code", session.Code).
			Str("user_id", participant.UserID).
			Int("round", session.CurrentQuestionIndex).
			Msg("duplicate answer ignored")
		return outcome{snapshot: snapshot(session)}
	}
	question, _ := session.currentQuestion()
	correct := c.answerIndex == question.Correct
	points := Score(correct, c.elapsedSeconds)

	participant.HasAnsweredCurrent = true
	participant.Score += points
	userID := participant.UserID
	if correct {
		participant.CorrectAnswers++
		reward := CurrencyReward(points)
		participant.CurrencyEarned += reward
		o.sinks.Enqueue(currencyJob(session.Code, userID, reward))
	}
	o.touch(session)

	now := o.clock.Now().UTC()
	o.out.Broadcast(session.Code, newMessage(msgAnswerResult, session.Code, now, answerResultData{
		UserID:  userID,
		Correct: correct,
		Points:  points,
		Players: rosterView(session.Players),
	}))
	if session.allAnswered() {
		o.armRoundTimer(session)
	}
	return outcome{snapshot: snapshot(session)}
}

func (o *Orchestrator) advanceQuestion(c advanceQuestionCmd) outcome {
	session, ok := o.store.Get(c.code)
	if !ok {
		return outcome{err: ErrSessionNotFound}
	}
	participant := session.participantByConnection(c.connID)
	if participant == nil {
		return outcome{err: ErrNotAParticipant}
	}
	if !participant.IsHost {
		return outcome{err: ErrNotHost}
	}
	if session.Status != statusPlaying {
		return outcome{err: ErrInvalidState}
	}
	o.cancelTimer(session.Code)
	log.Info().
		Str("session_code", session.Code).
		Int("round", session.CurrentQuestionIndex).
		Msg("host advanced round")
	o.advanceRound(session)
	return outcome{snapshot: snapshot(session)}
}

// advanceRound is shared by the grace timer and the host-forced advance.
func (o *Orchestrator) advanceRound(session *GameSession) {
	session.PendingAdvance = noPendingAdvance
	session.resetAnswers()
	session.CurrentQuestionIndex++
	o.touch(session)
	if session.CurrentQuestionIndex >= len(session.Questions) {
		o.finish(session)
		return
	}
	round, _ := roundView(session)
	o.out.Broadcast(session.Code, newMessage(msgRoundAdvanced, session.Code, o.clock.Now().UTC(), round))
	log.Debug().
		Str("session_code", session.Code).
		Int("round", session.CurrentQuestionIndex).
		Msg("round advanced")
	o.recordEvent(session, "", "round_advanced", map[string]any{
		"ordinal": round.Ordinal,
	})
}

func (o *Orchestrator) finish(session *GameSession) {
	now := o.clock.Now().UTC()
	session.Status = statusFinished
	o.cancelTimer(session.Code)
	session.Ranking = rankParticipants(session.Players)
	ranking := rankingView(session.Ranking)
	o.out.Broadcast(session.Code, newMessage(msgSessionFinished, session.Code, now, sessionFinishedData{Ranking: ranking}))

	total := len(session.Questions)
	for i, player := range session.Ranking {
		o.sinks.Enqueue(resultJob(sink.Result{
			SessionID:      session.ID,
			SessionCode:    session.Code,
			UserID:         player.UserID,
			QuestionSetID:  session.QuestionSetID,
			GameMode:       session.GameMode,
			Score:          player.Score,
			Placement:      i + 1,
			IsWinner:       i == 0,
			CorrectAnswers: player.CorrectAnswers,
			TotalQuestions: total,
			CurrencyEarned: player.CurrencyEarned,
			FinishedAt:     now,
		}))
	}
	winner := ""
	if len(ranking) > 0 {
		winner = ranking[0].UserID
	}
	log.Info().
		Str("session_code", session.Code).
		Str("winner", winner).
		Int("players", len(ranking)).
		Msg("session finished")
	o.recordEvent(session, "", "session_finished", map[string]any{
		"ranking": ranking,
	})
}

// rankParticipants orders by score, keeping join order on ties.
func rankParticipants(players []Participant) []Participant {
	ranking := make([]Participant, len(players))
	copy(ranking, players)
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})
	return ranking
}

// bind maps connID to code. A connection belongs to one session at a time.
func (o *Orchestrator) bind(connID, code string) {
	if previous, ok := o.conns[connID]; ok && previous != code {
		o.release(connID)
	}
	o.conns[connID] = code
	o.out.Subscribe(code, connID)
}

// detachConnection clears connID from any participant other than keepUserID,
// so a connection never speaks for two participants of one session.
func (o *Orchestrator) detachConnection(session *GameSession, connID, keepUserID string) {
	for i := range session.Players {
		if session.Players[i].ConnectionID == connID && session.Players[i].UserID != keepUserID {
			session.Players[i].ConnectionID = ""
		}
	}
}

// release handles a connection going away. Lobby participants are kept so
// they can reconnect; in-game participants are removed.
func (o *Orchestrator) release(connID string) {
	code, ok := o.conns[connID]
	if !ok {
		return
	}
	delete(o.conns, connID)
	o.out.Unsubscribe(code, connID)

	session, ok := o.store.Get(code)
	if !ok {
		return
	}
	participant := session.participantByConnection(connID)
	if participant == nil {
		return
	}
	if session.Status == statusWaiting {
		participant.ConnectionID = ""
		if participant.IsHost {
			session.HostConnectionID = ""
		}
		log.Debug().
			Str("session_code", code).
			Str("user_id", participant.UserID).
			Msg("lobby participant disconnected, keeping seat")
		return
	}
	removed, _ := session.removeParticipant(participant.UserID)
	o.touch(session)
	log.Info().
		Str("session_code", code).
		Str("user_id", removed.UserID).
		Str("status", session.Status).
		Int("players", len(session.Players)).
		Msg("participant left")
	o.recordEvent(session, removed.UserID, "participant_left", nil)

	if len(session.Players) == 0 {
		o.removeSession(session, "empty")
		return
	}
	o.out.Broadcast(code, newMessage(msgParticipantLeft, code, o.clock.Now().UTC(), participantLeftData{
		UserID:  removed.UserID,
		Players: rosterView(session.Players),
	}))
	if session.Status == statusPlaying && session.allAnswered() {
		o.armRoundTimer(session)
	}
}

func (o *Orchestrator) removeSession(session *GameSession, reason string) {
	code := session.Code
	o.cancelTimer(code)
	for connID, bound := range o.conns {
		if bound == code {
			delete(o.conns, connID)
		}
	}
	o.out.CloseRoom(code)
	o.store.Remove(code)
	log.Info().
		Str("session_code", code).
		Str("reason", reason).
		Msg("session removed")
	o.recordEvent(session, "", "session_closed", map[string]any{
		"reason": reason,
	})
}

func (o *Orchestrator) touch(session *GameSession) {
	session.LastActivity = o.clock.Now().UTC()
}

func (o *Orchestrator) recordEvent(session *GameSession, userID, eventType string, payload map[string]any) {
	o.sinks.Enqueue(eventJob(sink.Event{
		SessionCode: session.Code,
		UserID:      userID,
		Type:        eventType,
		Payload:     payload,
		At:          o.clock.Now().UTC(),
	}))
}
