//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/wanderwise/internal/bootstrap"
	"github.com/yanqian/wanderwise/internal/domain/recommender"
	"github.com/yanqian/wanderwise/internal/domain/scheduling"
	"github.com/yanqian/wanderwise/internal/domain/vibe"
	"github.com/yanqian/wanderwise/internal/infra/calendar/calendly"
	"github.com/yanqian/wanderwise/internal/infra/config"
	"github.com/yanqian/wanderwise/internal/infra/events/eventbrite"
	"github.com/yanqian/wanderwise/internal/infra/llm/chatgpt"
	"github.com/yanqian/wanderwise/internal/infra/llm/tokencount"
	httpiface "github.com/yanqian/wanderwise/internal/interface/http"
	"github.com/yanqian/wanderwise/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideRecommenderConfig,
		provideVibeConfig,
		provideChatGPTClient,
		provideEventbriteClient,
		provideCalendlyClient,
		provideTokenCounter,
		provideQueryLog,
		provideVibeStore,
		recommender.NewEventSearchTool,
		recommender.NewService,
		scheduling.NewService,
		vibe.NewService,
		wire.Bind(new(recommender.ChatClient), new(*chatgpt.Client)),
		wire.Bind(new(recommender.TokenCounter), new(*tokencount.Counter)),
		wire.Bind(new(recommender.EventSearcher), new(*eventbrite.Client)),
		wire.Bind(new(scheduling.CalendarClient), new(*calendly.Client)),
		wire.Bind(new(vibe.ChatClient), new(*chatgpt.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
