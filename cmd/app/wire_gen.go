// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package main

import (
	"github.com/yanqian/wanderwise/internal/bootstrap"
	"github.com/yanqian/wanderwise/internal/domain/recommender"
	"github.com/yanqian/wanderwise/internal/domain/scheduling"
	"github.com/yanqian/wanderwise/internal/domain/vibe"
	"github.com/yanqian/wanderwise/internal/infra/config"
	"github.com/yanqian/wanderwise/internal/interface/http"
	"github.com/yanqian/wanderwise/pkg/logger"
)

// Injectors from wire.go:

func initializeApp() (*bootstrap.App, error) {
	configConfig, err := config.Load()
	if err != nil {
		return nil, err
	}
	slogLogger := logger.New()
	recommenderConfig := provideRecommenderConfig(configConfig)
	client := provideChatGPTClient(configConfig)
	eventbriteClient := provideEventbriteClient(configConfig, slogLogger)
	eventSearchTool := recommender.NewEventSearchTool(eventbriteClient, slogLogger)
	counter := provideTokenCounter(configConfig, slogLogger)
	queryLog := provideQueryLog(configConfig, slogLogger)
	service := recommender.NewService(recommenderConfig, client, eventSearchTool, counter, queryLog, slogLogger)
	calendlyClient := provideCalendlyClient(configConfig, slogLogger)
	schedulingService := scheduling.NewService(calendlyClient, slogLogger)
	vibeConfig := provideVibeConfig(configConfig)
	store := provideVibeStore(configConfig, slogLogger)
	vibeService := vibe.NewService(vibeConfig, client, store, slogLogger)
	handler := http.NewHandler(service, schedulingService, vibeService, slogLogger)
	server := http.NewRouter(configConfig, handler)
	app := bootstrap.NewApp(configConfig, slogLogger, server)
	return app, nil
}
