package db

import "time"

type GameResult struct {
	ID             uint      `gorm:"primaryKey"`
	SessionID      string    `gorm:"size:36;not null;uniqueIndex:idx_game_results_session_user"`
	SessionCode    string    `gorm:"size:12;not null;index"`
	UserID         string    `gorm:"size:64;not null;index;uniqueIndex:idx_game_results_session_user"`
	QuestionSetID  string    `gorm:"size:64;not null;index"`
	GameMode       string    `gorm:"size:32;not null;default:classic"`
	Score          int       `gorm:"not null;default:0"`
	Placement      int       `gorm:"not null"`
	IsWinner       bool      `gorm:"not null;default:false"`
	CorrectAnswers int       `gorm:"not null;default:0"`
	TotalQuestions int       `gorm:"not null;default:0"`
	FinishedAt     time.Time `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}
