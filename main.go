package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/careloop/health-coach/agent/agents/coach"
	medicationx "github.com/careloop/health-coach/agent/medication"
	promptx "github.com/careloop/health-coach/agent/prompt"
	"github.com/careloop/health-coach/agent/tooladapter"
	configx "github.com/careloop/health-coach/pkg/config"
	_ "github.com/careloop/health-coach/pkg/logger/autoload"
	openaix "github.com/careloop/health-coach/pkg/openai"
	serverx "github.com/careloop/health-coach/server"
)

func main() {
	serverCfg := configx.MustNew[serverx.Config]("")
	openaiCfg := configx.MustNew[openaix.Config]("OPENAI")

	store := medicationx.NewStore()
	adapter := tooladapter.New(store, tooladapter.NewThemeState())

	var coachSvc *coach.Coach
	if client := openaix.NewClient(*openaiCfg); client == nil {
		log.Warn().Msg("OPENAI_API_KEY not set; chat endpoint disabled, medication REST surface only")
	} else {
		ctx := context.Background()
		chatModel, err := openaiCfg.New(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build chat model")
		}
		coachSvc, err = coach.New(ctx, chatModel, promptx.CoachPrompt(), store, adapter)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build health coach")
		}
	}

	srv := serverx.New(*serverCfg, serverx.NewHandler(store, coachSvc))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}
