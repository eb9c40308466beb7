package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/onlyil/sharingan-design/internal/api"
	"github.com/onlyil/sharingan-design/internal/asset"
	"github.com/onlyil/sharingan-design/internal/auth"
	"github.com/onlyil/sharingan-design/internal/config"
	"github.com/onlyil/sharingan-design/internal/db"
	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/engine"
	"github.com/onlyil/sharingan-design/internal/export"
	"github.com/onlyil/sharingan-design/internal/live"
	mw "github.com/onlyil/sharingan-design/internal/middleware"
	"github.com/onlyil/sharingan-design/internal/preset"
	"github.com/onlyil/sharingan-design/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	presets := preset.Builtin()
	if cfg.PresetFile != "" {
		presets, err = preset.LoadFile(cfg.PresetFile)
		if err != nil {
			slog.Error("load presets", "path", cfg.PresetFile, "error", err)
			os.Exit(1)
		}
		go func() {
			if err := presets.Watch(ctx, cfg.PresetFile); err != nil {
				slog.Error("preset watcher stopped", "error", err)
			}
		}()
	}

	authService := auth.NewService(cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	limits := engine.Limits{MaxSize: float64(cfg.MaxPreviewSize), MaxAxes: cfg.MaxAxes}

	apiService := api.NewService(kv, presets, document.SaveOptions{LegacyMirror: cfg.LegacyMirror}, limits)
	apiHandler := api.NewHandler(apiService, presets, float64(cfg.PreviewSize))

	hub := live.NewHub(live.Options{
		FPS: cfg.PreviewFPS,
		NewEngine: func() *engine.Engine {
			e := engine.NewEngine(presets, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
			e.SetPreviewSize(float64(cfg.PreviewSize))
			return e
		},
		Load:   apiService.LoadSession,
		Save:   apiService.SaveSession,
		Limits: limits,
	})
	go hub.Run(ctx)
	liveHandler := live.NewHandler(hub, authService, cfg.Origins())

	assetHandler := asset.NewHandler(cfg.AssetDir, presets)
	exportHandler := export.NewHandler(cfg.FfmpegPath, presets, float64(cfg.PreviewSize), limits)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.NewCORS(cfg.Origins()))

	// Public routes
	r.HandleFunc("/auth/anonymous", authHandler.Anonymous).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/assets/presets/{name}.png", assetHandler.Thumbnail).Methods("GET")
	r.HandleFunc("/export/{format}", exportHandler.Export).Methods("POST")

	// Presets and render are public; session and designs need a token.
	apiHandler.Register(r, authService)

	r.HandleFunc("/ws/preview", liveHandler.Preview)

	// CORS preflight for every route; the CORS middleware writes the reply.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save every open room
		slog.Info("saving open rooms...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore picks the key-value backend named by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (store.KV, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemoryKV(), func() {}, nil
	case "sqlite":
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLiteKV(sqlDB), func() { sqlDB.Close() }, nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgresKV(pool), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
