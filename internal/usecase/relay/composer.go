package relay

import (
	"time"

	"osrs-bluesky-bot/internal/domain/entity"
)

// Compose builds the link-preview post for entry. The visible text is the
// summary verbatim: it is what the next run compares against, so it must not
// be truncated or reformatted.
func Compose(entry *entity.FeedEntry, thumb *entity.BlobRef, now time.Time) entity.PostPayload {
	return entity.PostPayload{
		Text: entry.Summary,
		External: entity.ExternalEmbed{
			Title:       entry.Title,
			Description: entry.Summary,
			URI:         entry.Link,
			Thumb:       thumb,
		},
		CreatedAt: now.UTC(),
	}
}
