package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/noahzark/telegram-media-downloader/internal/modules/media/domain"
	"github.com/noahzark/telegram-media-downloader/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
api_id: 12345
api_hash: deadbeef
chat_id: 777
media_types:
  - photo
  - document
file_formats:
  document:
    - pdf
    - zip
last_read_message_id: 10
ids_to_retry:
  - 3
  - 8
`

func TestLoad(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12345, cfg.APIID)
	assert.Equal(t, "deadbeef", cfg.APIHash)
	assert.Equal(t, int64(777), cfg.ChatID)
	assert.Equal(t, []domain.MediaType{domain.MediaTypePhoto, domain.MediaTypeDocument}, cfg.MediaTypes)
	assert.Equal(t, []string{"pdf", "zip"}, cfg.FileFormats[domain.MediaTypeDocument])
	assert.Equal(t, int64(10), cfg.LastReadMessageID)
	assert.Equal(t, []int64{3, 8}, cfg.IDsToRetry)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
api_id: 12345
api_hash: deadbeef
chat_id: 777
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./downloads", cfg.StoragePath)
	assert.Equal(t, "./downloader.session", cfg.SessionPath)
	assert.Equal(t, 10, cfg.PaginationLimit)
	assert.Len(t, cfg.MediaTypes, len(domain.MediaTypeNames()))
	assert.Equal(t, domain.AppEnvProduction, cfg.AppEnv)
	assert.False(t, cfg.Debug)
}

func TestLoadMissingCredentials(t *testing.T) {
	path := writeConfig(t, "chat_id: 777\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, errors.ErrMissingAPICredentials)
}

func TestLoadMissingChatID(t *testing.T) {
	path := writeConfig(t, "api_id: 12345\napi_hash: deadbeef\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, errors.ErrMissingChatID)
}

func TestLoadRejectsUnknownMediaType(t *testing.T) {
	path := writeConfig(t, `
api_id: 12345
api_hash: deadbeef
chat_id: 777
media_types:
  - hologram
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveMergesFailedIDs(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.Save(99, []int64{8, 21, 21}))

	reloaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(99), reloaded.LastReadMessageID)
	// Union of prior and new ids, deduplicated and sorted.
	assert.Equal(t, []int64{3, 8, 21}, reloaded.IDsToRetry)
	assert.Equal(t, cfg.APIHash, reloaded.APIHash)
	assert.Equal(t, cfg.FileFormats, reloaded.FileFormats)
}

func TestSaveWithoutFileFails(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Save(1, nil))
}
