package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/charmbracelet/log"
	"github.com/ngenohkevin/racetime_clock/internal/clock"
	"github.com/ngenohkevin/racetime_clock/internal/config"
	"github.com/ngenohkevin/racetime_clock/internal/handlers"
	"github.com/ngenohkevin/racetime_clock/internal/localize"
	"github.com/ngenohkevin/racetime_clock/internal/timer"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "racetime",
	})

	// Load configuration from .env and the environment
	cfg, warnings := config.Load()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fallback, ok := localize.Lookup(cfg.DefaultLocale)
	if !ok {
		logger.Warn("unsupported default locale", "locale", cfg.DefaultLocale, "using", fallback.Tag)
	}
	resolver := localize.NewResolver(ctx, fallback, cfg.LocaleCacheTTL)

	// Start the tick loop once; it runs until shutdown
	frames := timer.NewTickerFrames(cfg.FrameRate)
	defer frames.Stop()
	engine := timer.NewEngine(timer.NewRegistry(),
		timer.WithClock(clock.Real{}),
		timer.WithFrames(frames),
		timer.WithLocation(cfg.Location),
		timer.WithLogger(logger.WithPrefix("tick")),
	)
	loop := engine.Start(ctx)

	// Initialize session manager
	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = false // Set to true in production with HTTPS

	h := handlers.New(engine, sessionManager, cfg, logger)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handlers.NewRouter(h, sessionManager, resolver),
		ReadTimeout: 10 * time.Second,
		// No write timeout: the event stream is long-lived
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port, "frame_rate", cfg.FrameRate, "timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("error starting server", "err", err)
		}
	}()

	// Graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Cancelling the base context ends open event streams
	loop.Stop()
	cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down server", "err", err)
	}

	logger.Info("server gracefully stopped")
}
