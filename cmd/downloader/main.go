package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/noahzark/telegram-media-downloader/internal/di"
	downloadDomain "github.com/noahzark/telegram-media-downloader/internal/modules/download/domain"
	downloadService "github.com/noahzark/telegram-media-downloader/internal/modules/download/service"
	"github.com/noahzark/telegram-media-downloader/internal/shared/config"
	telegramClient "github.com/noahzark/telegram-media-downloader/internal/transport/telegram"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	// Setup structured logging with multiple handlers using slog-multi
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	// Use Fanout to send logs to both handlers
	multiHandler := slogmulti.Fanout(textHandler, jsonHandler)
	logger := slog.New(multiHandler)
	slog.SetDefault(logger)

	// One optional argument: the config file name
	configFile := ""
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	// Setup dependency injection
	injector, err := di.Setup(configFile)
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	// Get services from DI container
	cfg := do.MustInvoke[*config.Config](injector)
	client := do.MustInvoke[*telegramClient.Client](injector)
	registry := do.MustInvoke[*downloadDomain.FailureRegistry](injector)
	downloader := do.MustInvoke[*downloadService.Service](injector)

	// Stop the import on Ctrl+C; the page in flight still completes
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := client.Start(ctx); err != nil {
		slog.Error("Failed to start telegram client", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting media import", "chat_id", cfg.ChatID, "cursor", cfg.LastReadMessageID)
	cursor, err := downloader.Run(ctx)
	if err != nil {
		slog.Error("Media import aborted", "cursor", cursor, "error", err)
	}

	if registry.Len() > 0 {
		slog.Info("Downloading of some messages failed, their ids are saved to the config file for retry",
			"failed_count", registry.Len())
	}

	if err := cfg.Save(cursor, registry.IDs()); err != nil {
		slog.Error("Failed to update config file", "error", err)
		os.Exit(1)
	}
	slog.Info("Updated last read message id in config file", "cursor", cursor)
}
