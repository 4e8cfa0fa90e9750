package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/noahzark/telegram-media-downloader/internal/modules/download/domain"
	"github.com/noahzark/telegram-media-downloader/internal/modules/download/repository"
	mediaDomain "github.com/noahzark/telegram-media-downloader/internal/modules/media/domain"
	mediaService "github.com/noahzark/telegram-media-downloader/internal/modules/media/service"
	"github.com/noahzark/telegram-media-downloader/internal/shared/config"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	// maxAttempts bounds the download attempts per message across all
	// recoverable failure kinds.
	maxAttempts = 3
	// transientBackoff is the fixed delay before retrying a transient failure.
	transientBackoff = 5 * time.Second
)

// errPageLimit stops history iteration after the first full page in debug mode.
var errPageLimit = errors.New("page limit reached")

// Source is the capability surface of the remote message stream consumed by
// the downloader. Implementations translate their own failures into the
// domain error taxonomy; an empty path with a nil error from a download call
// is a soft failure.
type Source interface {
	// IterateMessages calls fn for every message of the chat with id strictly
	// greater than afterID, in increasing id order. A non-nil error from fn
	// stops the iteration and is returned as-is.
	IterateMessages(ctx context.Context, chatID, afterID int64, fn func(mediaDomain.Message) error) error

	// DownloadAttachment transfers the attachment body to dest and returns
	// the path written, or "" on soft failure.
	DownloadAttachment(ctx context.Context, att mediaDomain.Attachment, dest string) (string, error)

	// DownloadThumbnail transfers one thumbnail of a video attachment.
	DownloadThumbnail(ctx context.Context, att mediaDomain.Attachment, thumb mediaDomain.Thumbnail, dest string) (string, error)

	// RefetchMessage fetches a fresh copy of a message, renewing its
	// attachment references. Used only on stale-reference recovery.
	RefetchMessage(ctx context.Context, chatID, messageID int64) (mediaDomain.Message, error)
}

// Service drives the paginated download run: it walks the message stream in
// pages, fans each page out to per-message downloads, and advances the resume
// cursor only after a whole page reached a terminal outcome.
type Service struct {
	cfg      *config.Config
	media    *mediaService.Service
	dup      repository.DuplicateResolver
	source   Source
	registry *domain.FailureRegistry

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// New creates a new download service.
func New(cfg *config.Config, media *mediaService.Service, dup repository.DuplicateResolver, source Source, registry *domain.FailureRegistry) *Service {
	return &Service{
		cfg:      cfg,
		media:    media,
		dup:      dup,
		source:   source,
		registry: registry,
		sleep:    time.Sleep,
	}
}

// Run walks the chat history starting after the configured cursor, processes
// it in pages of PaginationLimit messages, and returns the final cursor. An
// empty stream leaves the cursor unchanged. Per-message failures never abort
// the run; they are only visible through the FailureRegistry.
func (s *Service) Run(ctx context.Context) (int64, error) {
	cursor := s.cfg.LastReadMessageID
	buffer := make([]mediaDomain.Message, 0, s.cfg.PaginationLimit)

	err := s.source.IterateMessages(ctx, s.cfg.ChatID, cursor, func(msg mediaDomain.Message) error {
		if len(buffer) < s.cfg.PaginationLimit {
			buffer = append(buffer, msg)
			return nil
		}

		// Buffer is full: dispatch it and start the next page with the
		// triggering message as its first element.
		cursor = s.ProcessPage(ctx, buffer)
		buffer = append(make([]mediaDomain.Message, 0, s.cfg.PaginationLimit), msg)
		slog.Info("Page processed", "chat_id", s.cfg.ChatID, "cursor", cursor)

		if s.cfg.Debug {
			return errPageLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errPageLimit) {
		return cursor, oops.With("chat_id", s.cfg.ChatID, "cursor", cursor, "context", "failed to iterate chat history").Wrap(err)
	}

	// Terminal flush of the last partial page.
	if len(buffer) > 0 {
		cursor = s.ProcessPage(ctx, buffer)
		slog.Info("Final page processed", "chat_id", s.cfg.ChatID, "cursor", cursor)
	}

	return cursor, nil
}

// ProcessPage launches one download per message, waits for all of them to
// reach a terminal outcome, and returns the maximum message id of the page.
// Individual failures do not cancel siblings and never surface here.
func (s *Service) ProcessPage(ctx context.Context, messages []mediaDomain.Message) int64 {
	ids := make([]int64, len(messages))

	var wg sync.WaitGroup
	for i, msg := range messages {
		wg.Add(1)
		go func(i int, msg mediaDomain.Message) {
			defer wg.Done()
			ids[i] = s.DownloadMessage(ctx, msg)
		}(i, msg)
	}
	wg.Wait()

	return lo.Max(ids)
}

// DownloadMessage brings a single message to a terminal state with respect to
// its media attachments and returns its id so the cursor can advance past it
// even on permanent failure.
//
// Stale references are refetched and retried immediately, transient failures
// retried after a fixed backoff, both capped at maxAttempts. Any other error
// marks the message permanently failed at once.
func (s *Service) DownloadMessage(ctx context.Context, msg mediaDomain.Message) int64 {
	id := msg.ID
	slog.Info("Downloading media of message", "message_id", id)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.downloadAttachments(ctx, msg)
		if err == nil {
			return id
		}

		switch domain.Classify(err) {
		case domain.FailureKindStaleReference:
			slog.Warn("File reference expired, refetching message", "message_id", id, "attempt", attempt)
			if attempt == maxAttempts {
				slog.Error("File reference expired on final attempt, download skipped", "message_id", id)
				s.registry.Add(id)
				return id
			}
			fresh, fetchErr := s.source.RefetchMessage(ctx, msg.ChatID, id)
			if fetchErr != nil {
				slog.Error("Failed to refetch message", "message_id", id, "error", fetchErr)
				s.registry.Add(id)
				return id
			}
			msg = fresh

		case domain.FailureKindTransient:
			slog.Warn("Transient failure, retrying after backoff", "message_id", id, "attempt", attempt, "error", err)
			if attempt == maxAttempts {
				slog.Error("Timing out on final attempt, download skipped", "message_id", id)
				s.registry.Add(id)
				return id
			}
			s.sleep(transientBackoff)

		default:
			slog.Error("Message could not be downloaded", "message_id", id, "error", err)
			s.registry.Add(id)
			return id
		}
	}

	return id
}

// downloadAttachments performs one attempt over all configured attachments of
// the message. A rejected format or a soft download failure skips the
// attachment without failing the attempt.
func (s *Service) downloadAttachments(ctx context.Context, msg mediaDomain.Message) error {
	if !msg.HasMedia() {
		return nil
	}

	for _, att := range msg.Attachments {
		if !lo.Contains(s.cfg.MediaTypes, att.Type) {
			continue
		}

		resolved := s.media.Resolve(att, msg.ChatID)
		if !s.media.CanDownload(att.Type, s.cfg.FileFormats, resolved.Format) {
			continue
		}

		if err := s.downloadOne(ctx, msg, att, resolved); err != nil {
			return err
		}
	}
	return nil
}

// downloadOne dispatches the download call matching the attachment variant.
// Videos download each thumbnail image instead of the video body.
func (s *Service) downloadOne(ctx context.Context, msg mediaDomain.Message, att mediaDomain.Attachment, resolved mediaService.Resolved) error {
	saveName := resolved.SaveName()
	slog.Info("Start downloading", "message_id", msg.ID, "file", resolved.Name)

	if s.dup.Exists(saveName) {
		alternate := s.dup.NextName(saveName)
		path, err := s.source.DownloadAttachment(ctx, att, alternate)
		if err != nil {
			return err
		}
		if path == "" {
			s.logSoftFailure(msg.ID, resolved.Name)
			return nil
		}
		final, err := s.dup.Reconcile(path)
		if err != nil {
			slog.Warn("Failed to reconcile duplicate", "message_id", msg.ID, "path", path, "error", err)
			final = path
		}
		slog.Info("Downloaded", "message_id", msg.ID, "path", final)
		return nil
	}

	if att.Type == mediaDomain.MediaTypeVideo {
		for _, thumb := range att.Thumbnails {
			path, err := s.source.DownloadThumbnail(ctx, att, thumb, resolved.SavePath+".jpg")
			if err != nil {
				return err
			}
			if path == "" {
				s.logSoftFailure(msg.ID, resolved.Name)
				continue
			}
			slog.Info("Downloaded thumbnail", "message_id", msg.ID, "path", path)
		}
		return nil
	}

	path, err := s.source.DownloadAttachment(ctx, att, saveName)
	if err != nil {
		return err
	}
	if path == "" {
		s.logSoftFailure(msg.ID, resolved.Name)
		return nil
	}
	slog.Info("Downloaded", "message_id", msg.ID, "path", path)
	return nil
}

func (s *Service) logSoftFailure(messageID int64, name string) {
	slog.Warn("Download returned no result", "message_id", messageID, "file", name, "failure_kind", domain.FailureKindSoft)
}
