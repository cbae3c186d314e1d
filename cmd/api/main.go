package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"snapforge/internal/domain"
	"snapforge/internal/engine"
	"snapforge/internal/http/handlers"
	"snapforge/internal/http/httpapi"
	"snapforge/internal/infra"
	"snapforge/internal/infra/geoip"
	"snapforge/internal/ledger"
	"snapforge/internal/providers/genai"
	imageprovider "snapforge/internal/providers/image"
	"snapforge/internal/providers/prompt"
	videoprovider "snapforge/internal/providers/video"
	"snapforge/internal/queue"
	"snapforge/internal/storage"
	"snapforge/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	walletDB, err := store.OpenWalletDB(cfg.WalletPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open wallet store")
	}
	defer walletDB.Close()

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open artifact storage")
	}

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open geoip database")
	}
	var countries geoip.CountryResolver
	if geo != nil {
		defer geo.Close()
		countries = geo
	}

	profiles := store.NewProfileStore(sqlRunner)
	wallets := store.NewWalletStore(walletDB)

	led := ledger.New(profiles, wallets, ledger.Config{
		Costs: domain.CostTable{
			Image:  cfg.CostImage,
			Video:  cfg.CostVideo,
			Prompt: cfg.CostPrompt,
			Chat:   cfg.CostChat,
		},
		VisitorGrant: cfg.VisitorGrant,
		Allotments: map[domain.Plan]int{
			domain.PlanFree: cfg.FreeMonthlyCredits,
			domain.PlanPro:  cfg.ProMonthlyCredits,
		},
	}, logger)

	gemini, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		VideoModel: cfg.GeminiVideoModel,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generation client")
	}
	images := imageprovider.NewGeminiGenerator(gemini)
	videos := videoprovider.NewGeminiGenerator(gemini)

	var enhancer prompt.Enhancer = prompt.NewStaticEnhancer()
	if cfg.OpenAIAPIKey != "" {
		enhancer = prompt.NewOpenAIEnhancer(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	}

	q := queue.New()
	eng := engine.New(q, led, images, videos, logger)
	runner := queue.NewRunner(q, eng, cfg.QueueWaitMin, cfg.QueueWaitMax, logger)
	eng.AttachSlot(runner)

	app := &handlers.App{
		Logger:          logger,
		SQL:             sqlRunner,
		Engine:          eng,
		Ledger:          led,
		Profiles:        profiles,
		Enhancer:        enhancer,
		Geo:             countries,
		Files:           files,
		JWTSecret:       cfg.JWTSecret,
		StartingCredits: cfg.FreeMonthlyCredits,
	}

	router := httpapi.NewRouter(app, cfg)
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
