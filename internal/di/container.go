package di

import (
	downloadDomain "github.com/noahzark/telegram-media-downloader/internal/modules/download/domain"
	downloadRepo "github.com/noahzark/telegram-media-downloader/internal/modules/download/repository"
	downloadService "github.com/noahzark/telegram-media-downloader/internal/modules/download/service"
	mediaService "github.com/noahzark/telegram-media-downloader/internal/modules/media/service"
	"github.com/noahzark/telegram-media-downloader/internal/shared/config"
	telegramClient "github.com/noahzark/telegram-media-downloader/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup initializes the dependency injection container
func Setup(configFile string) (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, oops.With("config_file", configFile, "context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Failure Registry (owned by the run, merged into config at shutdown)
	do.Provide(injector, func(i do.Injector) (*downloadDomain.FailureRegistry, error) {
		return downloadDomain.NewFailureRegistry(), nil
	})

	// Register Media Naming Service
	do.Provide(injector, func(i do.Injector) (*mediaService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return mediaService.New(cfg.StoragePath), nil
	})

	// Register Duplicate Resolver
	do.Provide(injector, func(i do.Injector) (downloadRepo.DuplicateResolver, error) {
		return downloadRepo.NewFileStorage(), nil
	})

	// Register Telegram Client
	do.Provide(injector, func(i do.Injector) (*telegramClient.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return telegramClient.New(cfg), nil
	})

	// Register Download Service
	do.Provide(injector, func(i do.Injector) (*downloadService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		media := do.MustInvoke[*mediaService.Service](i)
		dup := do.MustInvoke[downloadRepo.DuplicateResolver](i)
		client := do.MustInvoke[*telegramClient.Client](i)
		registry := do.MustInvoke[*downloadDomain.FailureRegistry](i)
		return downloadService.New(cfg, media, dup, client, registry), nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	if client, err := do.Invoke[*telegramClient.Client](injector); err == nil && client != nil {
		client.Stop()
	}
	return nil
}
