package app

import "errors"

var (
	// ErrDocumentNotFound signals a lookup for a document id that does not resolve.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrSessionNotFound signals a lookup for a chat session id that does not resolve.
	ErrSessionNotFound = errors.New("session not found")
)
