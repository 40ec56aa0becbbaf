package main

import (
	"flag"

	"quiz-arena/internal/config"
	"quiz-arena/internal/db"
	"quiz-arena/internal/logging"
	"quiz-arena/internal/questions"

	"github.com/rs/zerolog/log"
)

func main() {
	filePath := flag.String("file", "", "path to question sets yaml (defaults to QUESTIONS_FILE)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	if *filePath == "" {
		*filePath = cfg.QuestionsFile
	}

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	sets, err := questions.LoadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("failed to read question sets")
	}

	loaded := 0
	for _, set := range sets {
		record, err := questions.ToRecord(set)
		if err != nil {
			log.Fatal().Err(err).Str("set_id", set.ID).Msg("failed to convert question set")
		}
		if err := db.ReplaceQuestionSet(conn, record); err != nil {
			log.Fatal().Err(err).Str("set_id", set.ID).Msg("failed to store question set")
		}
		log.Info().Str("set_id", set.ID).Int("questions", len(set.Questions)).Msg("question set stored")
		loaded++
	}

	log.Info().Int("sets", loaded).Msg("loaded question sets")
}
