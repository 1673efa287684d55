package models

import "time"

// DefaultMimeType is stored when an upload carries no content type
const DefaultMimeType = "application/octet-stream"

// BlobMetadata represents a stored blob's metadata row
type BlobMetadata struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Blob is a stored blob together with its content
type Blob struct {
	BlobMetadata
	Data []byte `json:"-"`
}
