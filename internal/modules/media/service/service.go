package service

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/noahzark/telegram-media-downloader/internal/modules/media/domain"
	"github.com/samber/lo"
)

// FormatAll is the wildcard sentinel admitting every file format when it is
// the first entry of a type's allow-list.
const FormatAll = "all"

// Resolved is the canonical destination of a single attachment. Name is the
// bare file name, SavePath the full path rooted at
// <base>/<chat-id>/<media-type>/. Format is empty for types without a format
// concept.
type Resolved struct {
	Name     string
	Format   string
	SavePath string
}

// Service resolves canonical attachment names and applies the configured
// format allow-lists. All methods are pure with respect to the filesystem.
type Service struct {
	basePath string
}

// New creates a new media naming service rooted at basePath.
func New(basePath string) *Service {
	return &Service{basePath: basePath}
}

// Resolve maps an attachment to its canonical name and format. Resolving the
// same attachment twice yields the same result.
func (s *Service) Resolve(att domain.Attachment, chatID int64) Resolved {
	format := mimeFormat(att.MimeType)

	var name string
	switch {
	case att.Type == domain.MediaTypeVoice:
		name = fmt.Sprintf("voice_%s.%s", att.Date.UTC().Format("2006-01-02T15:04:05"), format)
	case att.Type == domain.MediaTypePhoto && att.FileName == "":
		ts := ""
		if !att.Date.IsZero() {
			ts = strconv.FormatInt(att.Date.Unix(), 10)
		}
		name = ts + att.FileUniqueID + ".jpg"
		format = ""
	default:
		hint := att.FileName
		if hint == "" {
			hint = att.FileUniqueID
		}
		name = fmt.Sprintf("%d-%s", att.Date.Unix(), hint)
	}

	return Resolved{
		Name:     name,
		Format:   format,
		SavePath: filepath.Join(s.basePath, strconv.FormatInt(chatID, 10), att.Type.String(), name),
	}
}

// SaveName appends the file format extension for types that carry one; voice
// and photo names already include theirs.
func (r Resolved) SaveName() string {
	switch {
	case r.Format == "":
		return r.SavePath
	case strings.HasSuffix(r.SavePath, "."+r.Format):
		return r.SavePath
	default:
		return r.SavePath + "." + r.Format
	}
}

// CanDownload reports whether an attachment of the given type and resolved
// format is admitted by the allow-list configuration. Types without a format
// concept are always admitted.
func (s *Service) CanDownload(t domain.MediaType, fileFormats map[domain.MediaType][]string, format string) bool {
	switch t {
	case domain.MediaTypeAudio, domain.MediaTypeDocument, domain.MediaTypeVideo:
		allowed := fileFormats[t]
		if len(allowed) == 0 {
			return false
		}
		return allowed[0] == FormatAll || lo.Contains(allowed, format)
	default:
		return true
	}
}

// mimeFormat extracts the format suffix of a MIME type ("video/mp4" -> "mp4").
func mimeFormat(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	parts := strings.Split(mimeType, "/")
	return parts[len(parts)-1]
}
