package sink

import (
	"context"
	"errors"
	"time"
)

// Result is one participant's outcome in a finished session.
type Result struct {
	SessionID      string    `json:"sessionId"`
	SessionCode    string    `json:"sessionCode"`
	UserID         string    `json:"userId"`
	QuestionSetID  string    `json:"questionSetId"`
	GameMode       string    `json:"gameMode"`
	Score          int       `json:"score"`
	Placement      int       `json:"placement"`
	IsWinner       bool      `json:"isWinner"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	CurrencyEarned int       `json:"currencyEarned"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// Event is a session lifecycle record, kept for auditing and downstream consumers.
type Event struct {
	SessionCode string    `json:"sessionCode"`
	UserID      string    `json:"userId,omitempty"`
	Type        string    `json:"type"`
	Payload     any       `json:"payload,omitempty"`
	At          time.Time `json:"at"`
}

type Sink interface {
	RecordResult(ctx context.Context, result Result) error
	AddCurrency(ctx context.Context, userID string, amount int) error
	RecordEvent(ctx context.Context, event Event) error
}

type Nop struct{}

func (Nop) RecordResult(context.Context, Result) error { return nil }

func (Nop) AddCurrency(context.Context, string, int) error { return nil }

func (Nop) RecordEvent(context.Context, Event) error { return nil }

// Fanout forwards every call to all sinks and joins their errors.
type Fanout []Sink

func (f Fanout) RecordResult(ctx context.Context, result Result) error {
	var errs []error
	for _, s := range f {
		if err := s.RecordResult(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) AddCurrency(ctx context.Context, userID string, amount int) error {
	var errs []error
	for _, s := range f {
		if err := s.AddCurrency(ctx, userID, amount); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) RecordEvent(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range f {
		if err := s.RecordEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
