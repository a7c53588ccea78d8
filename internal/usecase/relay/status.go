package relay

import (
	"fmt"
	"io"
)

// Status lines printed for each pipeline transition.
const (
	msgStarting          = "Starting bot.."
	msgConfigLoading     = "Bot loading environment variables.."
	msgConfigLoaded      = "Bot fetched environment variables.."
	msgConfigFailed      = "Bot was unable to fetch environment variables.."
	msgConfigMissingKey  = "Bot cannot find key '%s' in environment variables.."
	msgLoggedIn          = "Bot is logged in to Bluesky.."
	msgLoginFailed       = "Bot failed to log in to Bluesky.."
	msgMarkerFetched     = "Bot fetched previous post.."
	msgMarkerUnavailable = "Bot cannot get previous post.."
	msgFeedNoContent     = "Bot cannot find content in RSS feed.."
	msgFoundNewItem      = "Bot has found a new RSS item.."
	msgNoNewItem         = "Bot has not found a new RSS item.."
	msgPosted            = "Bot has posted to Bluesky.."
	msgPostFailed        = "Bot has failed to post to Bluesky.."
	msgSucceeded         = "Bot succeeded!"
	msgFailed            = "Bot failed!"
	msgIdle              = "Bot has nothing new to post."
)

const statusPrefix = "🤖 "

// Status writes human-readable, emoji-prefixed progress lines.
type Status struct {
	w io.Writer
}

// NewStatus creates a Status writing to w. A nil w discards output.
func NewStatus(w io.Writer) *Status {
	if w == nil {
		w = io.Discard
	}
	return &Status{w: w}
}

// Line prints one status line.
func (s *Status) Line(msg string) {
	_, _ = fmt.Fprintln(s.w, statusPrefix+msg)
}

// Linef prints one formatted status line.
func (s *Status) Linef(format string, args ...interface{}) {
	s.Line(fmt.Sprintf(format, args...))
}
