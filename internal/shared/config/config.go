package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/noahzark/telegram-media-downloader/internal/modules/media/domain"
	"github.com/noahzark/telegram-media-downloader/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

type Config struct {
	APIID             int                           `koanf:"api_id"`
	APIHash           string                        `koanf:"api_hash"`
	ChatID            int64                         `koanf:"chat_id"`
	MediaTypes        []domain.MediaType            `koanf:"media_types"`
	FileFormats       map[domain.MediaType][]string `koanf:"file_formats"`
	LastReadMessageID int64                         `koanf:"last_read_message_id"`
	IDsToRetry        []int64                       `koanf:"ids_to_retry"`
	PaginationLimit   int                           `koanf:"pagination_limit"`
	StoragePath       string                        `koanf:"storage_path"`
	SessionPath       string                        `koanf:"session_path"`
	Debug             bool                          `koanf:"debug"`
	AppEnv            domain.AppEnv                 `koanf:"app_env"`

	filename string
	parser   koanf.Parser
}

// Load reads the configuration from the given file, or from the first of
// config.{yaml,yml,json,toml} when filename is empty. Environment variables
// override file values.
func Load(filename string) (*Config, error) {
	k := koanf.New(".")

	if filename == "" {
		configFiles := []string{
			"config.yaml",
			"config.yml",
			"config.json",
			"config.toml",
		}

		// Use lo.Find to find the first existing config file
		found, ok := lo.Find(configFiles, func(f string) bool {
			_, err := os.Stat(f)
			return err == nil
		})
		if ok {
			filename = found
		}
	}

	var parser koanf.Parser
	if filename != "" {
		ext := filepath.Ext(filename)
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(filename), parser); err != nil {
			return nil, oops.With("config_file", filename).Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	if !k.Exists("storage_path") {
		k.Set("storage_path", "./downloads")
	}
	if !k.Exists("session_path") {
		k.Set("session_path", "./downloader.session")
	}
	if !k.Exists("pagination_limit") {
		k.Set("pagination_limit", 10)
	}
	if !k.Exists("media_types") {
		k.Set("media_types", domain.MediaTypeNames())
	}
	if !k.Exists("app_env") {
		k.Set("app_env", "production")
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}
	cfg.filename = filename
	cfg.parser = parser

	// Parse AppEnv from string if needed
	if appEnvStr := k.String("app_env"); appEnvStr != "" {
		if appEnv, err := domain.ParseAppEnv(appEnvStr); err == nil {
			cfg.AppEnv = appEnv
		} else {
			cfg.AppEnv = domain.AppEnvProduction
		}
	} else {
		cfg.AppEnv = domain.AppEnvProduction
	}

	// Validate required fields
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return nil, errors.ErrMissingAPICredentials
	}
	if cfg.ChatID == 0 {
		return nil, errors.ErrMissingChatID
	}
	for _, mediaType := range cfg.MediaTypes {
		if !mediaType.IsValid() {
			return nil, oops.With("media_type", mediaType.String()).Errorf("unsupported media type")
		}
	}

	return &cfg, nil
}

// Save writes the updated cursor and the union of the previous and newly
// failed message ids back to the config file, using the same format it was
// loaded from.
func (c *Config) Save(lastReadMessageID int64, failedIDs []int64) error {
	if c.filename == "" || c.parser == nil {
		return oops.Errorf("config was not loaded from a file, nothing to save to")
	}

	c.LastReadMessageID = lastReadMessageID
	c.IDsToRetry = lo.Uniq(append(c.IDsToRetry, failedIDs...))
	slices.Sort(c.IDsToRetry)

	data, err := c.parser.Marshal(c.asMap())
	if err != nil {
		return oops.With("config_file", c.filename, "context", "failed to marshal config").Wrap(err)
	}

	return os.WriteFile(c.filename, data, 0644)
}

func (c *Config) asMap() map[string]interface{} {
	mediaTypes := lo.Map(c.MediaTypes, func(t domain.MediaType, _ int) string {
		return t.String()
	})
	fileFormats := make(map[string][]string, len(c.FileFormats))
	for t, formats := range c.FileFormats {
		fileFormats[t.String()] = formats
	}

	return map[string]interface{}{
		"api_id":               c.APIID,
		"api_hash":             c.APIHash,
		"chat_id":              c.ChatID,
		"media_types":          mediaTypes,
		"file_formats":         fileFormats,
		"last_read_message_id": c.LastReadMessageID,
		"ids_to_retry":         c.IDsToRetry,
		"pagination_limit":     c.PaginationLimit,
		"storage_path":         c.StoragePath,
		"session_path":         c.SessionPath,
		"debug":                c.Debug,
		"app_env":              c.AppEnv.String(),
	}
}
