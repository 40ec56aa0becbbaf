package server

import (
	"time"

	"quiz-arena/internal/questions"
)

const (
	statusWaiting  = "waiting"
	statusPlaying  = "playing"
	statusFinished = "finished"
)

const defaultGameMode = "classic"

// noPendingAdvance marks a session with no armed round timer.
const noPendingAdvance = -1

// GameSession is one live game. ID is unique per session; Code is only unique
// among live sessions and can be reused once a session is gone.
type GameSession struct {
	ID                   string
	Code                 string
	HostConnectionID     string
	HostUserID           string
	QuestionSetID        string
	GameMode             string
	Status               string
	CurrentQuestionIndex int
	Players              []Participant
	Questions            []questions.Question
	Ranking              []Participant
	PendingAdvance       int
	CreatedAt            time.Time
	LastActivity         time.Time
}

type Participant struct {
	ConnectionID       string
	UserID             string
	DisplayName        string
	AvatarID           string
	Score              int
	HasAnsweredCurrent bool
	IsHost             bool
	CorrectAnswers     int
	CurrencyEarned     int
	JoinedAt           time.Time
}

func (g *GameSession) participantByConnection(connID string) *Participant {
	if connID == "" {
		return nil
	}
	for i := range g.Players {
		if g.Players[i].ConnectionID == connID {
			return &g.Players[i]
		}
	}
	return nil
}

func (g *GameSession) participantByUser(userID string) *Participant {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return &g.Players[i]
		}
	}
	return nil
}

func (g *GameSession) removeParticipant(userID string) (Participant, bool) {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			removed := g.Players[i]
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return removed, true
		}
	}
	return Participant{}, false
}

// allAnswered is false for an empty roster.
func (g *GameSession) allAnswered() bool {
	if len(g.Players) == 0 {
		return false
	}
	for _, player := range g.Players {
		if !player.HasAnsweredCurrent {
			return false
		}
	}
	return true
}

func (g *GameSession) resetAnswers() {
	for i := range g.Players {
		g.Players[i].HasAnsweredCurrent = false
	}
}

func (g *GameSession) currentQuestion() (questions.Question, bool) {
	if g.CurrentQuestionIndex < 0 || g.CurrentQuestionIndex >= len(g.Questions) {
		return questions.Question{}, false
	}
	return g.Questions[g.CurrentQuestionIndex], true
}
