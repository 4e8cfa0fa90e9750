package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/noahzark/telegram-media-downloader/internal/modules/media/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePhotoWithoutFileName(t *testing.T) {
	svc := New("/downloads")
	att := domain.Attachment{
		Type:         domain.MediaTypePhoto,
		Date:         time.Unix(1700000000, 0),
		FileUniqueID: "abc123",
	}

	resolved := svc.Resolve(att, 777)

	assert.Equal(t, "1700000000abc123.jpg", resolved.Name)
	assert.Empty(t, resolved.Format)
	assert.Equal(t, filepath.Join("/downloads", "777", "photo", "1700000000abc123.jpg"), resolved.SavePath)
	assert.Equal(t, resolved.SavePath, resolved.SaveName())
}

func TestResolvePhotoWithoutDate(t *testing.T) {
	svc := New("/downloads")
	att := domain.Attachment{
		Type:         domain.MediaTypePhoto,
		FileUniqueID: "abc123",
	}

	resolved := svc.Resolve(att, 777)

	assert.Equal(t, "abc123.jpg", resolved.Name)
}

func TestResolveVoice(t *testing.T) {
	svc := New("/downloads")
	att := domain.Attachment{
		Type:     domain.MediaTypeVoice,
		MimeType: "audio/ogg",
		Date:     time.Unix(1700000000, 0),
	}

	resolved := svc.Resolve(att, 42)

	assert.Equal(t, "voice_2023-11-14T22:13:20.ogg", resolved.Name)
	assert.Equal(t, "ogg", resolved.Format)
	// Voice names already carry the extension, SaveName must not double it.
	assert.Equal(t, filepath.Join("/downloads", "42", "voice", "voice_2023-11-14T22:13:20.ogg"), resolved.SaveName())
}

func TestResolveDocumentUsesFileNameHint(t *testing.T) {
	svc := New("/downloads")
	att := domain.Attachment{
		Type:         domain.MediaTypeDocument,
		MimeType:     "application/pdf",
		Date:         time.Unix(1700000000, 0),
		FileName:     "report.pdf",
		FileUniqueID: "unique1",
	}

	resolved := svc.Resolve(att, 42)

	assert.Equal(t, "1700000000-report.pdf", resolved.Name)
	assert.Equal(t, "pdf", resolved.Format)
	// The hint keeps its own extension, so the resolved format is not appended twice.
	assert.Equal(t, filepath.Join("/downloads", "42", "document", "1700000000-report.pdf"), resolved.SaveName())
}

func TestResolveVideoFallsBackToUniqueID(t *testing.T) {
	svc := New("/downloads")
	att := domain.Attachment{
		Type:         domain.MediaTypeVideo,
		MimeType:     "video/mp4",
		Date:         time.Unix(1700000000, 0),
		FileUniqueID: "vid42",
	}

	resolved := svc.Resolve(att, 42)

	assert.Equal(t, "1700000000-vid42", resolved.Name)
	assert.Equal(t, "mp4", resolved.Format)
	assert.Equal(t, filepath.Join("/downloads", "42", "video", "1700000000-vid42.mp4"), resolved.SaveName())
}

func TestResolveIsIdempotent(t *testing.T) {
	svc := New("/downloads")
	att := domain.Attachment{
		Type:         domain.MediaTypeAudio,
		MimeType:     "audio/mpeg",
		Date:         time.Unix(1600000000, 0),
		FileUniqueID: "song1",
	}

	first := svc.Resolve(att, 7)
	second := svc.Resolve(att, 7)

	require.Equal(t, first, second)
}

func TestCanDownload(t *testing.T) {
	svc := New("/downloads")
	formats := map[domain.MediaType][]string{
		domain.MediaTypeDocument: {"pdf", "zip"},
		domain.MediaTypeAudio:    {"all"},
		domain.MediaTypeVideo:    {},
	}

	tests := []struct {
		name      string
		mediaType domain.MediaType
		format    string
		want      bool
	}{
		{"document in allow-list", domain.MediaTypeDocument, "pdf", true},
		{"document not in allow-list", domain.MediaTypeDocument, "exe", false},
		{"audio wildcard admits everything", domain.MediaTypeAudio, "flac", true},
		{"video with empty allow-list", domain.MediaTypeVideo, "mp4", false},
		{"photo always admitted", domain.MediaTypePhoto, "", true},
		{"voice always admitted", domain.MediaTypeVoice, "ogg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.CanDownload(tt.mediaType, formats, tt.format))
		})
	}
}

func TestCanDownloadWildcardMustBeFirst(t *testing.T) {
	svc := New("/downloads")
	formats := map[domain.MediaType][]string{
		domain.MediaTypeDocument: {"pdf", "all"},
	}

	assert.False(t, svc.CanDownload(domain.MediaTypeDocument, formats, "exe"))
	assert.True(t, svc.CanDownload(domain.MediaTypeDocument, formats, "pdf"))
}
