package telegram

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"net"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	downloadDomain "github.com/noahzark/telegram-media-downloader/internal/modules/download/domain"
	"github.com/noahzark/telegram-media-downloader/internal/modules/media/domain"
)

// mapMessage converts a raw history message into the domain representation.
// Messages without media map to a message with no attachments.
func mapMessage(chatID int64, msg *tg.Message) domain.Message {
	out := domain.Message{
		ID:     int64(msg.ID),
		ChatID: chatID,
		Date:   time.Unix(int64(msg.Date), 0),
	}

	media, ok := msg.GetMedia()
	if !ok {
		return out
	}

	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		if att, ok := mapPhoto(m); ok {
			out.Attachments = append(out.Attachments, att)
		}
	case *tg.MessageMediaDocument:
		if att, ok := mapDocument(m); ok {
			out.Attachments = append(out.Attachments, att)
		}
	}
	return out
}

func mapPhoto(media *tg.MessageMediaPhoto) (domain.Attachment, bool) {
	photoClass, ok := media.GetPhoto()
	if !ok {
		return domain.Attachment{}, false
	}
	photo, ok := photoClass.AsNotEmpty()
	if !ok {
		return domain.Attachment{}, false
	}

	return domain.Attachment{
		Type:          domain.MediaTypePhoto,
		Date:          time.Unix(int64(photo.Date), 0),
		FileUniqueID:  fileUniqueID(photo.ID),
		FileID:        photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     largestPhotoSize(photo.Sizes),
	}, true
}

func mapDocument(media *tg.MessageMediaDocument) (domain.Attachment, bool) {
	docClass, ok := media.GetDocument()
	if !ok {
		return domain.Attachment{}, false
	}
	doc, ok := docClass.AsNotEmpty()
	if !ok {
		return domain.Attachment{}, false
	}

	att := domain.Attachment{
		Type:          domain.MediaTypeDocument,
		MimeType:      doc.MimeType,
		Date:          time.Unix(int64(doc.Date), 0),
		FileUniqueID:  fileUniqueID(doc.ID),
		FileID:        doc.ID,
		AccessHash:    doc.AccessHash,
		FileReference: doc.FileReference,
		Size:          doc.Size,
	}

	// The document's attributes decide the variant: round/voice notes beat
	// plain audio, any video attribute makes it a video.
	for _, attrClass := range doc.Attributes {
		switch attr := attrClass.(type) {
		case *tg.DocumentAttributeFilename:
			att.FileName = attr.FileName
		case *tg.DocumentAttributeAudio:
			if attr.Voice {
				att.Type = domain.MediaTypeVoice
			} else {
				att.Type = domain.MediaTypeAudio
			}
		case *tg.DocumentAttributeVideo:
			att.Type = domain.MediaTypeVideo
		}
	}

	if att.Type == domain.MediaTypeVideo {
		for _, sizeClass := range doc.Thumbs {
			if size, ok := sizeClass.(*tg.PhotoSize); ok {
				att.Thumbnails = append(att.Thumbnails, domain.Thumbnail{
					Type:   size.Type,
					Width:  size.W,
					Height: size.H,
				})
			}
		}
	}

	return att, true
}

// largestPhotoSize picks the size type of the biggest non-progressive photo
// representation; telegram orders Sizes smallest to largest.
func largestPhotoSize(sizes []tg.PhotoSizeClass) string {
	selected := ""
	for _, sizeClass := range sizes {
		switch size := sizeClass.(type) {
		case *tg.PhotoSize:
			selected = size.Type
		case *tg.PhotoSizeProgressive:
			selected = size.Type
		}
	}
	return selected
}

// fileUniqueID derives a stable identifier from the telegram object id.
func fileUniqueID(id int64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

// staleReferenceErrors are the RPC errors meaning an attachment's file
// reference must be renewed by refetching the message.
var staleReferenceErrors = []string{
	"FILE_REFERENCE_EXPIRED",
	"FILE_REFERENCE_INVALID",
	"FILE_REFERENCE_EMPTY",
}

// translateError maps transport failures onto the download error taxonomy.
// Unknown errors pass through and end up unclassified.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var rpcErr *tgerr.Error
	if errors.As(err, &rpcErr) && rpcErr.IsOneOf(staleReferenceErrors...) {
		return &downloadDomain.StaleReferenceError{Err: err}
	}
	if _, ok := tgerr.AsFloodWait(err); ok {
		return &downloadDomain.TransientError{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &downloadDomain.TransientError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &downloadDomain.TransientError{Err: err}
	}
	return err
}
