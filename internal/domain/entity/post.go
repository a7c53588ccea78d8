package entity

import "time"

// BlobRef is a network-assigned reference to previously uploaded media.
type BlobRef struct {
	CID      string
	MimeType string
	Size     int64
}

// ExternalEmbed is a link-preview card attached to a post.
type ExternalEmbed struct {
	Title       string
	Description string
	URI         string
	Thumb       *BlobRef
}

// PostPayload is the post submitted to the network. It is built once per
// successful detection and submitted exactly once.
type PostPayload struct {
	Text      string
	External  ExternalEmbed
	CreatedAt time.Time
}

// Post is a previously published post as read back from the network.
type Post struct {
	URI         string
	Text        string
	ExternalURI string
	CreatedAt   string
}
