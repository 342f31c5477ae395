package main

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/submission-ticker-api/internal/config"
	"github.com/submission-ticker-api/internal/ticker"
	"github.com/submission-ticker-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(logger.Options{Service: "tickerproxy"})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "tickerproxy"})

	if cfg.Ticker.Upstream == "" {
		log.Fatal().Msg("PROXY_UPSTREAM is required")
	}
	upstream, err := url.Parse(cfg.Ticker.Upstream)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid PROXY_UPSTREAM")
	}

	proxy := httputil.NewSingleHostReverseProxy(upstream)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Host = upstream.Host
		// let the transport decompress so HTML bodies can be rewritten
		r.Header.Del("Accept-Encoding")
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream request failed")
		w.WriteHeader(http.StatusBadGateway)
	}

	fetcher := ticker.NewFetcher(cfg.Ticker.FeedURL, cfg.Ticker.FetchTimeout, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Ticker.ProxyPort,
		Handler:      ticker.NewRewriter(proxy, fetcher, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().
			Str("port", cfg.Ticker.ProxyPort).
			Str("upstream", upstream.String()).
			Str("feed", cfg.Ticker.FeedURL).
			Msg("Ticker proxy listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Proxy failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Proxy forced to shutdown")
	}
	log.Info().Msg("Proxy exited gracefully")
}
