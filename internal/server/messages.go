package server

import (
	"time"

	"github.com/google/uuid"
)

const (
	msgCreateSession   = "create-session"
	msgJoinSession     = "join-session"
	msgRequestState    = "request-state"
	msgStartSession    = "start-session"
	msgSubmitAnswer    = "submit-answer"
	msgAdvanceQuestion = "advance-question"

	msgSessionCreated    = "session-created"
	msgSessionJoined     = "session-joined"
	msgSessionState      = "session-state"
	msgParticipantJoined = "participant-joined"
	msgParticipantLeft   = "participant-left"
	msgRoundStarted      = "round-started"
	msgRoundAdvanced     = "round-advanced"
	msgAnswerResult      = "answer-result"
	msgSessionFinished   = "session-finished"
	msgSessionClosed     = "session-closed"
	msgJoinError         = "join-error"
	msgError             = "error"
)

// Message is the outbound frame written to websocket clients.
type Message struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

func newMessage(msgType, code string, at time.Time, data any) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Code:      code,
		Timestamp: at.UTC(),
		Data:      data,
	}
}

type ParticipantView struct {
	UserID         string `json:"userId"`
	DisplayName    string `json:"displayName"`
	AvatarID       string `json:"avatarId"`
	Score          int    `json:"score"`
	HasAnswered    bool   `json:"hasAnswered"`
	IsHost         bool   `json:"isHost"`
	CorrectAnswers int    `json:"correctAnswers"`
}

type SessionSnapshot struct {
	Code                 string            `json:"code"`
	HostUserID           string            `json:"hostUserId"`
	QuestionSetID        string            `json:"questionSetId"`
	GameMode             string            `json:"gameMode"`
	Status               string            `json:"status"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	TotalQuestions       int               `json:"totalQuestions"`
	Players              []ParticipantView `json:"players"`
	CreatedAt            time.Time         `json:"createdAt"`
}

// QuestionView is a question as clients see it, without the correct index.
type QuestionView struct {
	Prompt  string   `json:"question"`
	Answers []string `json:"answers"`
}

type RankingEntry struct {
	Placement      int    `json:"placement"`
	UserID         string `json:"userId"`
	DisplayName    string `json:"displayName"`
	AvatarID       string `json:"avatarId"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
}

type sessionCreatedData struct {
	Code    string          `json:"code"`
	Session SessionSnapshot `json:"session"`
}

type sessionData struct {
	Session SessionSnapshot `json:"session"`
}

type participantJoinedData struct {
	Participant ParticipantView   `json:"participant"`
	Players     []ParticipantView `json:"players"`
}

type participantLeftData struct {
	UserID  string            `json:"userId"`
	Players []ParticipantView `json:"players"`
}

type roundData struct {
	Question QuestionView `json:"question"`
	Ordinal  int          `json:"ordinal"`
	Total    int          `json:"total"`
}

type answerResultData struct {
	UserID  string            `json:"userId"`
	Correct bool              `json:"correct"`
	Points  int               `json:"points"`
	Players []ParticipantView `json:"players"`
}

type sessionFinishedData struct {
	Ranking []RankingEntry `json:"ranking"`
}

type sessionClosedData struct {
	Reason string `json:"reason"`
}

type errorData struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func participantView(p Participant) ParticipantView {
	return ParticipantView{
		UserID:         p.UserID,
		DisplayName:    p.DisplayName,
		AvatarID:       p.AvatarID,
		Score:          p.Score,
		HasAnswered:    p.HasAnsweredCurrent,
		IsHost:         p.IsHost,
		CorrectAnswers: p.CorrectAnswers,
	}
}

func rosterView(players []Participant) []ParticipantView {
	out := make([]ParticipantView, 0, len(players))
	for _, player := range players {
		out = append(out, participantView(player))
	}
	return out
}

func snapshot(session *GameSession) SessionSnapshot {
	return SessionSnapshot{
		Code:                 session.Code,
		HostUserID:           session.HostUserID,
		QuestionSetID:        session.QuestionSetID,
		GameMode:             session.GameMode,
		Status:               session.Status,
		CurrentQuestionIndex: session.CurrentQuestionIndex,
		TotalQuestions:       len(session.Questions),
		Players:              rosterView(session.Players),
		CreatedAt:            session.CreatedAt,
	}
}

func roundView(session *GameSession) (roundData, bool) {
	question, ok := session.currentQuestion()
	if !ok {
		return roundData{}, false
	}
	answers := make([]string, len(question.Answers))
	copy(answers, question.Answers)
	return roundData{
		Question: QuestionView{Prompt: question.Prompt, Answers: answers},
		Ordinal:  session.CurrentQuestionIndex + 1,
		Total:    len(session.Questions),
	}, true
}

func rankingView(ranking []Participant) []RankingEntry {
	out := make([]RankingEntry, 0, len(ranking))
	for i, player := range ranking {
		out = append(out, RankingEntry{
			Placement:      i + 1,
			UserID:         player.UserID,
			DisplayName:    player.DisplayName,
			AvatarID:       player.AvatarID,
			Score:          player.Score,
			CorrectAnswers: player.CorrectAnswers,
		})
	}
	return out
}
