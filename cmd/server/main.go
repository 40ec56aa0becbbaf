package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-arena/internal/config"
	"quiz-arena/internal/db"
	"quiz-arena/internal/logging"
	"quiz-arena/internal/questions"
	"quiz-arena/internal/server"
	"quiz-arena/internal/sink"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(gin.ReleaseMode)

	var conn *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		conn, err = db.Open(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		log.Info().Msg("connected to database")
	}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		var err error
		nc, err = sink.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("nats connection failed")
		}
		defer nc.Close()
	}

	provider, err := buildProvider(cfg, conn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load question sets")
	}

	srv := server.New(cfg, provider, buildSink(cfg, conn, nc), nil)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv.Start(ctx)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("quiz-arena server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := srv.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("sink drain incomplete")
	}
}

// buildProvider prefers the database, then the YAML file, then the built-in sets.
func buildProvider(cfg config.Config, conn *gorm.DB) (questions.Provider, error) {
	if conn != nil {
		return questions.NewGormProvider(conn), nil
	}
	if cfg.QuestionsFile != "" {
		if _, err := os.Stat(cfg.QuestionsFile); err == nil {
			sets, err := questions.LoadFile(cfg.QuestionsFile)
			if err != nil {
				return nil, err
			}
			log.Info().Str("file", cfg.QuestionsFile).Int("sets", len(sets)).Msg("loaded question sets")
			return questions.NewMemoryProvider(sets...), nil
		}
	}
	log.Info().Msg("using built-in question sets")
	return questions.NewMemoryProvider(questions.DefaultSets()...), nil
}

func buildSink(cfg config.Config, conn *gorm.DB, nc *nats.Conn) sink.Sink {
	var sinks sink.Fanout
	if conn != nil {
		sinks = append(sinks, sink.NewGormSink(conn))
	}
	if nc != nil {
		sinks = append(sinks, sink.NewNATSSink(nc, cfg.NATSSubjectPrefix))
	}
	if len(sinks) == 0 {
		log.Warn().Msg("no result sink configured, results will be discarded")
		return sink.Nop{}
	}
	return sinks
}
