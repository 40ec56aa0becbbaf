package db

import "time"

type PlayerStats struct {
	UserID              string    `gorm:"primaryKey;size:64"`
	TotalGames          int       `gorm:"not null;default:0"`
	TotalWins           int       `gorm:"not null;default:0"`
	TotalCorrect        int       `gorm:"not null;default:0"`
	TotalQuestions      int       `gorm:"not null;default:0"`
	TotalCurrencyEarned int       `gorm:"not null;default:0"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

type PlayerWallet struct {
	UserID    string    `gorm:"primaryKey;size:64"`
	Currency  int       `gorm:"not null;default:500"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
