package questions

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrSetNotFound = errors.New("question set not found")
	ErrInvalidSet  = errors.New("invalid question set")
)

// Question is a multiple-choice prompt. Correct indexes into Answers.
type Question struct {
	Prompt  string   `json:"question" yaml:"question"`
	Answers []string `json:"answers" yaml:"answers"`
	Correct int      `json:"correct" yaml:"correct"`
}

type Set struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Subject   string     `json:"subject" yaml:"subject"`
	CreatedBy string     `json:"createdBy" yaml:"created_by"`
	Questions []Question `json:"questions" yaml:"questions"`
}

type SetSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Subject       string `json:"subject"`
	QuestionCount int    `json:"questionCount"`
}

// Provider is the read-only lookup the session orchestrator consumes.
type Provider interface {
	Questions(ctx context.Context, setID string) ([]Question, error)
	Sets(ctx context.Context) ([]SetSummary, error)
}

// Validate checks that every question has at least two answers and an in-range
// correct index.
func (s Set) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSet)
	}
	if s.Title == "" {
		return fmt.Errorf("%w: set %s has no title", ErrInvalidSet, s.ID)
	}
	for i, question := range s.Questions {
		if question.Prompt == "" {
			return fmt.Errorf("%w: set %s question %d has no prompt", ErrInvalidSet, s.ID, i+1)
		}
		if len(question.Answers) < 2 {
			return fmt.Errorf("%w: set %s question %d needs at least two answers", ErrInvalidSet, s.ID, i+1)
		}
		if question.Correct < 0 || question.Correct >= len(question.Answers) {
			return fmt.Errorf("%w: set %s question %d correct index %d out of range", ErrInvalidSet, s.ID, i+1, question.Correct)
		}
	}
	return nil
}

func cloneQuestions(list []Question) []Question {
	out := make([]Question, len(list))
	for i, question := range list {
		answers := make([]string, len(question.Answers))
		copy(answers, question.Answers)
		out[i] = Question{Prompt: question.Prompt, Answers: answers, Correct: question.Correct}
	}
	return out
}
