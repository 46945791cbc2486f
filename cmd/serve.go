package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/litscout/litscout/internal/analysis"
	"github.com/litscout/litscout/internal/config"
	"github.com/litscout/litscout/internal/crawler"
	"github.com/litscout/litscout/internal/gemini"
	"github.com/litscout/litscout/internal/handlers"
	"github.com/litscout/litscout/internal/loanstats"
	"github.com/litscout/litscout/internal/ollama"
	"github.com/litscout/litscout/internal/openai"
	"github.com/litscout/litscout/internal/providers"
	"github.com/litscout/litscout/internal/storage"
)

func newServeCmd() *cobra.Command {
	var port string
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long: `Starts the litscout web interface on the specified port.

Paste a book-platform URL on the query tab to crawl it and extract
AI-generated literary metadata, or use the chat tab for open
discussion conditioned on the most recently analyzed book.`,
		Example: `  # Start server on default port 8888
  litscout serve

  # Start server on custom port with a config file
  litscout serve --port 3000 --config litscout.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}
			if port != "" {
				cfg.Port = port
			}

			provider, err := newProvider(cfg.Provider)
			if err != nil {
				return err
			}

			var loans loanstats.Provider = loanstats.NewSeeded()
			if cfg.LoanDataset != "" {
				loans, err = loanstats.LoadDataset(cfg.LoanDataset, loanstats.NewSeeded())
				if err != nil {
					return err
				}
			}

			store := storage.New(loans)
			svc := analysis.NewService(provider, cfg.Model, cfg.Temperature)
			handler := handlers.New(store, crawler.New(), svc, cfg.Provider, cfg.MaxPages)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/credential", handler.HandleCredential)
			mux.HandleFunc("/api/search", handler.HandleSearch)
			mux.HandleFunc("/api/books", handler.HandleBooks)
			mux.HandleFunc("/api/query", handler.HandleQuery)
			mux.HandleFunc("/api/chat", handler.HandleChat)
			mux.HandleFunc("/api/transcripts", handler.HandleTranscripts)
			mux.HandleFunc("/api/feedback", handler.HandleFeedback)
			mux.HandleFunc("/api/feedback/report", handler.HandleFeedbackReport)
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Litscout interface available", "addr", addr, "url", "http://localhost"+addr, "provider", cfg.Provider, "model", cfg.Model)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Path to YAML config file")

	return cmd
}

func newProvider(name string) (providers.Provider, error) {
	switch name {
	case "gemini":
		return gemini.New(), nil
	case "openai":
		return openai.New(), nil
	case "ollama":
		return ollama.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

func defaultConfigPath() string {
	if _, err := os.Stat("litscout.yaml"); err == nil {
		return "litscout.yaml"
	}
	return ""
}
