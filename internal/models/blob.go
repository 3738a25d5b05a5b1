package models

import (
	"time"
)

// Blob describes a stored binary object. The bytes live in the blob store;
// this row carries what is needed to serve them.
type Blob struct {
	CreatedAt   time.Time `json:"createdAt"`
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
}
