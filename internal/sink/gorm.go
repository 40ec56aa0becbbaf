package sink

import (
	"context"
	"encoding/json"
	"errors"

	"quiz-arena/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StartingCurrency is the balance a wallet is created with.
const StartingCurrency = 500

type GormSink struct {
	db *gorm.DB
}

func NewGormSink(conn *gorm.DB) *GormSink {
	return &GormSink{db: conn}
}

// RecordResult stores the game row and folds it into the player's stats.
// A result already stored for the same session id and user is ignored.
func (s *GormSink) RecordResult(ctx context.Context, result Result) error {
	if s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := db.GameResult{
			SessionID:      result.SessionID,
			SessionCode:    result.SessionCode,
			UserID:         result.UserID,
			QuestionSetID:  result.QuestionSetID,
			GameMode:       result.GameMode,
			Score:          result.Score,
			Placement:      result.Placement,
			IsWinner:       result.IsWinner,
			CorrectAnswers: result.CorrectAnswers,
			TotalQuestions: result.TotalQuestions,
			FinishedAt:     result.FinishedAt,
		}
		err := tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(&record).Error
		})
		if err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return err
		}
		wins := 0
		if result.IsWinner {
			wins = 1
		}
		stats := db.PlayerStats{
			UserID:              result.UserID,
			TotalGames:          1,
			TotalWins:           wins,
			TotalCorrect:        result.CorrectAnswers,
			TotalQuestions:      result.TotalQuestions,
			TotalCurrencyEarned: result.CurrencyEarned,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_games":           gorm.Expr("player_stats.total_games + 1"),
				"total_wins":            gorm.Expr("player_stats.total_wins + ?", wins),
				"total_correct":         gorm.Expr("player_stats.total_correct + ?", result.CorrectAnswers),
				"total_questions":       gorm.Expr("player_stats.total_questions + ?", result.TotalQuestions),
				"total_currency_earned": gorm.Expr("player_stats.total_currency_earned + ?", result.CurrencyEarned),
				"updated_at":            gorm.Expr("NOW()"),
			}),
		}).Create(&stats).Error
	})
}

func (s *GormSink) AddCurrency(ctx context.Context, userID string, amount int) error {
	if s.db == nil || amount == 0 {
		return nil
	}
	wallet := db.PlayerWallet{UserID: userID, Currency: StartingCurrency + amount}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"currency":   gorm.Expr("player_wallets.currency + ?", amount),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&wallet).Error
}

func (s *GormSink) RecordEvent(ctx context.Context, event Event) error {
	if s.db == nil {
		return nil
	}
	payload := []byte("{}")
	if event.Payload != nil {
		encoded, err := json.Marshal(event.Payload)
		if err != nil {
			return err
		}
		payload = encoded
	}
	record := db.Event{
		SessionCode: event.SessionCode,
		Type:        event.Type,
		Payload:     datatypes.JSON(payload),
		CreatedAt:   event.At,
	}
	if event.UserID != "" {
		userID := event.UserID
		record.UserID = &userID
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
