package relay

import (
	"fmt"

	"osrs-bluesky-bot/internal/config"
)

// Marker is what is known about the account's most recent post. The zero
// value is the "unknown" sentinel.
type Marker struct {
	// Text is the plain-text body of the last post.
	Text string

	// Link is the URI of the last post's external embed, if any.
	Link string
}

// MarkerStrategy decides whether a feed item has already been published.
type MarkerStrategy interface {
	Name() string
	Seen(marker Marker, item FeedItem) bool
}

// SummaryMarker treats an item as seen iff its summary equals the last post
// text exactly. An unknown marker is the empty string and is compared the
// same way.
type SummaryMarker struct{}

// Name returns "summary".
func (SummaryMarker) Name() string { return config.MarkerModeSummary }

// Seen compares item.Summary with marker.Text byte for byte.
func (SummaryMarker) Seen(marker Marker, item FeedItem) bool {
	return item.Summary == marker.Text
}

// LinkMarker treats an item as seen iff its link equals the URI embedded in
// the last post. An unknown marker never matches.
type LinkMarker struct{}

// Name returns "link".
func (LinkMarker) Name() string { return config.MarkerModeLink }

// Seen compares item.Link with marker.Link.
func (LinkMarker) Seen(marker Marker, item FeedItem) bool {
	return marker.Link != "" && item.Link == marker.Link
}

// StrategyFor returns the strategy for a marker mode.
func StrategyFor(mode string) (MarkerStrategy, error) {
	switch mode {
	case "", config.MarkerModeSummary:
		return SummaryMarker{}, nil
	case config.MarkerModeLink:
		return LinkMarker{}, nil
	default:
		return nil, fmt.Errorf("unknown marker mode %q", mode)
	}
}
