package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionSet struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Title     string    `gorm:"size:140;not null"`
	Subject   string    `gorm:"size:64"`
	CreatedBy string    `gorm:"size:64"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Questions []Question
}

type Question struct {
	ID            uint           `gorm:"primaryKey"`
	QuestionSetID string         `gorm:"size:64;not null;uniqueIndex:idx_questions_set_position"`
	Position      int            `gorm:"not null;uniqueIndex:idx_questions_set_position"`
	Prompt        string         `gorm:"size:500;not null"`
	Answers       datatypes.JSON `gorm:"type:jsonb;not null"`
	CorrectIndex  int            `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"not null"`
}

// ReplaceQuestionSet upserts the set row and rewrites its questions in one transaction.
func ReplaceQuestionSet(conn *gorm.DB, set *QuestionSet) error {
	if conn == nil {
		return nil
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		header := QuestionSet{
			ID:        set.ID,
			Title:     set.Title,
			Subject:   set.Subject,
			CreatedBy: set.CreatedBy,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "subject", "created_by", "updated_at"}),
		}).Create(&header).Error; err != nil {
			return err
		}
		if err := tx.Where("question_set_id = ?", set.ID).Delete(&Question{}).Error; err != nil {
			return err
		}
		if len(set.Questions) == 0 {
			return nil
		}
		rows := make([]Question, 0, len(set.Questions))
		for i, question := range set.Questions {
			question.ID = 0
			question.QuestionSetID = set.ID
			question.Position = i
			rows = append(rows, question)
		}
		return tx.Create(&rows).Error
	})
}
