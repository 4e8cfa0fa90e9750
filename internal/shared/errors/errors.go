package errors

import "errors"

var (
	ErrMissingAPICredentials = errors.New("api_id and api_hash are required")
	ErrMissingChatID         = errors.New("chat_id is required")
	ErrUnauthorizedSession   = errors.New("telegram session is not authorized, log in first")
	ErrChatNotFound          = errors.New("chat not found in dialogs")
)
