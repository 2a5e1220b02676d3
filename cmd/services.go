package cmd

import (
	"fmt"

	"github.com/khrees2412/prospector/internal/ai"
	"github.com/khrees2412/prospector/internal/api"
	"github.com/khrees2412/prospector/internal/app"
	"github.com/khrees2412/prospector/internal/promotion"
	"github.com/khrees2412/prospector/internal/ranking"
	"github.com/khrees2412/prospector/internal/resume"
	"github.com/khrees2412/prospector/internal/scraper"
	"github.com/khrees2412/prospector/internal/tracker"
)

// newServices wires the domain services from the App's store, config and logger
func newServices(a *app.App) api.Services {
	client := ai.NewClient(a.Config.LLM, a.HTTPClient, a.Logger)
	tr := tracker.New(a.Store, a.Logger)
	registry := resume.NewRegistry(a.Store, a.Logger)

	return api.Services{
		Tracker: tr,
		Resumes: registry,
		Ranker: ranking.New(a.Store, registry, ai.NewAnalyzer(client), ranking.Options{
			Concurrency:       a.Config.Ranking.Concurrency,
			RequestsPerSecond: a.Config.Ranking.RequestsPerSecond,
		}, a.Logger),
		Promotion:    promotion.New(a.Store, tr, ai.NewExtractor(client), a.Logger),
		Fetcher:      scraper.NewFetcher(a.Config.Scraper, nil, a.Logger),
		RankOnCreate: a.Config.Ranking.OnCreate && a.Config.LLM.APIKey != "",
	}
}

// requireAPIKey fails early for commands that cannot work without the model
func requireAPIKey(a *app.App) error {
	if a.Config.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured. Set it with:\n  prospector config set llm.api_key <key>\nor export PROSPECTOR_LLM_API_KEY")
	}
	return nil
}
