package domain

import "time"

// Message represents one unit of a chat's ordered history. Messages are
// immutable once fetched; the only exception is a controlled refetch by id
// when an attachment reference has gone stale server-side.
type Message struct {
	ID          int64        `json:"id"`
	ChatID      int64        `json:"chat_id"`
	Date        time.Time    `json:"date"`
	Attachments []Attachment `json:"attachments"`
}

// HasMedia reports whether the message carries any attachment at all.
func (m Message) HasMedia() bool {
	return len(m.Attachments) > 0
}

// Attachment is the media payload of a message, tagged with one of the
// MediaType variants. The telegram-specific location fields (FileID,
// AccessHash, FileReference, ThumbSize) are opaque to everything except the
// transport layer.
type Attachment struct {
	Type          MediaType   `json:"type"`
	MimeType      string      `json:"mime_type,omitempty"` // empty for photo
	Date          time.Time   `json:"date"`
	FileName      string      `json:"file_name,omitempty"` // optional hint
	FileUniqueID  string      `json:"file_unique_id"`
	FileID        int64       `json:"file_id"`
	AccessHash    int64       `json:"-"`
	FileReference []byte      `json:"-"`
	ThumbSize     string      `json:"-"` // photo size type selected by the transport
	Size          int64       `json:"size,omitempty"`
	Thumbnails    []Thumbnail `json:"thumbnails,omitempty"` // video only
}

// Thumbnail identifies one preview image of a video attachment.
type Thumbnail struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
