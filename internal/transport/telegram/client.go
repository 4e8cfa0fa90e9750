package telegram

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	mediaDomain "github.com/noahzark/telegram-media-downloader/internal/modules/media/domain"
	"github.com/noahzark/telegram-media-downloader/internal/shared/config"
	sharedErrors "github.com/noahzark/telegram-media-downloader/internal/shared/errors"
	"github.com/samber/oops"
)

// historyBatchSize is the page size of a single MessagesGetHistory request.
// Kept small: large media-heavy chats tend to expire file references while a
// big page is still being processed.
const historyBatchSize = 100

// Client is the MTProto-backed message source. It brackets a run with
// Start/Stop, walks chat history in forward order, refetches messages whose
// file references went stale, and streams attachment bytes to disk.
type Client struct {
	cfg    *config.Config
	client *telegram.Client
	api    *tg.Client

	cancel context.CancelFunc
	done   chan error

	mu    sync.Mutex
	peers map[int64]tg.InputPeerClass
}

// New creates a telegram client using the stored session file. The session
// must already be authorized; interactive login is outside this tool.
func New(cfg *config.Config) *Client {
	client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionPath},
	})

	return &Client{
		cfg:    cfg,
		client: client,
		api:    client.API(),
		peers:  make(map[int64]tg.InputPeerClass),
	}
}

// Start connects the client and verifies the session authorization. It
// returns once the connection is usable; the connection lives until Stop.
func (c *Client) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan error, 1)
	initialized := make(chan error, 1)

	go func() {
		c.done <- c.client.Run(runCtx, func(ctx context.Context) error {
			status, err := c.client.Auth().Status(ctx)
			if err != nil {
				initialized <- err
				return err
			}
			if !status.Authorized {
				initialized <- sharedErrors.ErrUnauthorizedSession
				return sharedErrors.ErrUnauthorizedSession
			}
			initialized <- nil
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case err := <-initialized:
		if err != nil {
			c.cancel()
			return oops.With("context", "failed to initialize telegram session").Wrap(err)
		}
		return nil
	case err := <-c.done:
		// The run loop already exited, nothing left for Stop to wait on.
		c.cancel = nil
		return oops.With("context", "telegram client stopped during startup").Wrap(err)
	}
}

// Stop disconnects the client and waits for the run loop to exit.
func (c *Client) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

// IterateMessages walks the chat history in increasing id order, starting
// strictly after afterID, and calls fn for each message. A non-nil error from
// fn stops the walk and is returned unchanged.
func (c *Client) IterateMessages(ctx context.Context, chatID, afterID int64, fn func(mediaDomain.Message) error) error {
	peer, err := c.resolvePeer(ctx, chatID)
	if err != nil {
		return err
	}

	offset := afterID
	for {
		history, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:      peer,
			OffsetID:  int(offset) + 1,
			AddOffset: -historyBatchSize,
			Limit:     historyBatchSize,
		})
		if err != nil {
			return translateError(err)
		}

		modified, ok := history.AsModified()
		if !ok {
			return nil
		}

		batch := collectAscending(modified.GetMessages(), offset)
		if len(batch) == 0 {
			return nil
		}

		for _, msg := range batch {
			domainMsg := mapMessage(chatID, msg)
			if err := fn(domainMsg); err != nil {
				return err
			}
			offset = domainMsg.ID
		}
	}
}

// RefetchMessage fetches a fresh copy of one message by id, renewing its
// attachment file references.
func (c *Client) RefetchMessage(ctx context.Context, chatID, messageID int64) (mediaDomain.Message, error) {
	peer, err := c.resolvePeer(ctx, chatID)
	if err != nil {
		return mediaDomain.Message{}, err
	}

	input := []tg.InputMessageClass{&tg.InputMessageID{ID: int(messageID)}}

	var resp tg.MessagesMessagesClass
	switch p := peer.(type) {
	case *tg.InputPeerChannel:
		resp, err = c.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
			Channel: &tg.InputChannel{ChannelID: p.ChannelID, AccessHash: p.AccessHash},
			ID:      input,
		})
	default:
		resp, err = c.api.MessagesGetMessages(ctx, input)
	}
	if err != nil {
		return mediaDomain.Message{}, translateError(err)
	}

	modified, ok := resp.AsModified()
	if !ok {
		return mediaDomain.Message{}, oops.With("chat_id", chatID, "message_id", messageID).Errorf("unexpected response to message refetch")
	}
	for _, msgClass := range modified.GetMessages() {
		if msg, ok := msgClass.(*tg.Message); ok && int64(msg.ID) == messageID {
			return mapMessage(chatID, msg), nil
		}
	}
	return mediaDomain.Message{}, oops.With("chat_id", chatID, "message_id", messageID).Errorf("message not found on refetch")
}

// DownloadAttachment transfers the attachment body to dest. An attachment
// without a usable file location is a soft failure and yields ("", nil).
func (c *Client) DownloadAttachment(ctx context.Context, att mediaDomain.Attachment, dest string) (string, error) {
	if att.FileID == 0 {
		return "", nil
	}

	var location tg.InputFileLocationClass
	if att.Type == mediaDomain.MediaTypePhoto {
		location = &tg.InputPhotoFileLocation{
			ID:            att.FileID,
			AccessHash:    att.AccessHash,
			FileReference: att.FileReference,
			ThumbSize:     att.ThumbSize,
		}
	} else {
		location = &tg.InputDocumentFileLocation{
			ID:            att.FileID,
			AccessHash:    att.AccessHash,
			FileReference: att.FileReference,
		}
	}

	return c.downloadTo(ctx, location, dest)
}

// DownloadThumbnail transfers one thumbnail image of a video attachment.
func (c *Client) DownloadThumbnail(ctx context.Context, att mediaDomain.Attachment, thumb mediaDomain.Thumbnail, dest string) (string, error) {
	if att.FileID == 0 || thumb.Type == "" {
		return "", nil
	}

	location := &tg.InputDocumentFileLocation{
		ID:            att.FileID,
		AccessHash:    att.AccessHash,
		FileReference: att.FileReference,
		ThumbSize:     thumb.Type,
	}
	return c.downloadTo(ctx, location, dest)
}

func (c *Client) downloadTo(ctx context.Context, location tg.InputFileLocationClass, dest string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", oops.With("path", dest, "context", "failed to create download directory").Wrap(err)
	}

	if _, err := downloader.NewDownloader().Download(c.api, location).ToPath(ctx, dest); err != nil {
		return "", translateError(err)
	}
	return dest, nil
}

// resolvePeer looks the chat up in the account's dialogs. Access hashes are
// scoped to the session, so they cannot come from config.
func (c *Client) resolvePeer(ctx context.Context, chatID int64) (tg.InputPeerClass, error) {
	c.mu.Lock()
	if peer, ok := c.peers[chatID]; ok {
		c.mu.Unlock()
		return peer, nil
	}
	c.mu.Unlock()

	offsetDate := 0
	for {
		resp, err := c.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
			OffsetDate: offsetDate,
			OffsetPeer: &tg.InputPeerEmpty{},
			Limit:      historyBatchSize,
		})
		if err != nil {
			return nil, translateError(err)
		}

		dialogs, ok := resp.AsModified()
		if !ok {
			break
		}

		for _, chatClass := range dialogs.GetChats() {
			switch chat := chatClass.(type) {
			case *tg.Channel:
				if chat.ID == chatID {
					peer := &tg.InputPeerChannel{ChannelID: chat.ID, AccessHash: chat.AccessHash}
					c.cachePeer(chatID, peer)
					return peer, nil
				}
			case *tg.Chat:
				if chat.ID == chatID {
					peer := &tg.InputPeerChat{ChatID: chat.ID}
					c.cachePeer(chatID, peer)
					return peer, nil
				}
			}
		}

		for _, msgClass := range dialogs.GetMessages() {
			switch msg := msgClass.(type) {
			case *tg.Message:
				offsetDate = msg.Date
			case *tg.MessageService:
				offsetDate = msg.Date
			}
		}
		if len(dialogs.GetDialogs()) < historyBatchSize {
			break
		}
	}

	return nil, oops.With("chat_id", chatID).Wrap(sharedErrors.ErrChatNotFound)
}

func (c *Client) cachePeer(chatID int64, peer tg.InputPeerClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers[chatID] = peer
}

// collectAscending filters a history page down to plain messages with id
// strictly greater than afterID and returns them oldest-first.
func collectAscending(messages []tg.MessageClass, afterID int64) []*tg.Message {
	var batch []*tg.Message
	for _, msgClass := range messages {
		msg, ok := msgClass.(*tg.Message)
		if !ok || int64(msg.ID) <= afterID {
			continue
		}
		batch = append(batch, msg)
	}
	// History pages arrive newest-first.
	for i, j := 0, len(batch)-1; i < j; i, j = i+1, j-1 {
		batch[i], batch[j] = batch[j], batch[i]
	}
	return batch
}
