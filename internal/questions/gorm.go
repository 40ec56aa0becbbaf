package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-arena/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormProvider reads question sets from Postgres.
type GormProvider struct {
	db *gorm.DB
}

func NewGormProvider(conn *gorm.DB) *GormProvider {
	return &GormProvider{db: conn}
}

func (p *GormProvider) Questions(ctx context.Context, setID string) ([]Question, error) {
	var set db.QuestionSet
	err := p.db.WithContext(ctx).
		Preload("Questions", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		First(&set, "id = ?", setID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSetNotFound
	}
	if err != nil {
		return nil, err
	}
	out := make([]Question, 0, len(set.Questions))
	for _, row := range set.Questions {
		var answers []string
		if err := json.Unmarshal(row.Answers, &answers); err != nil {
			return nil, fmt.Errorf("question %d answers: %w", row.ID, err)
		}
		out = append(out, Question{Prompt: row.Prompt, Answers: answers, Correct: row.CorrectIndex})
	}
	return out, nil
}

func (p *GormProvider) Sets(ctx context.Context) ([]SetSummary, error) {
	var rows []SetSummary
	err := p.db.WithContext(ctx).
		Model(&db.QuestionSet{}).
		Select("question_sets.id, question_sets.title, question_sets.subject, COUNT(questions.id) AS question_count").
		Joins("LEFT JOIN questions ON questions.question_set_id = question_sets.id").
		Group("question_sets.id, question_sets.title, question_sets.subject").
		Order("question_sets.title asc, question_sets.id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ToRecord converts a validated set into its database row.
func ToRecord(set Set) (*db.QuestionSet, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	record := &db.QuestionSet{
		ID:        set.ID,
		Title:     set.Title,
		Subject:   set.Subject,
		CreatedBy: set.CreatedBy,
		Questions: make([]db.Question, 0, len(set.Questions)),
	}
	for i, question := range set.Questions {
		answers, err := json.Marshal(question.Answers)
		if err != nil {
			return nil, err
		}
		record.Questions = append(record.Questions, db.Question{
			QuestionSetID: set.ID,
			Position:      i,
			Prompt:        question.Prompt,
			Answers:       datatypes.JSON(answers),
			CorrectIndex:  question.Correct,
		})
	}
	return record, nil
}
