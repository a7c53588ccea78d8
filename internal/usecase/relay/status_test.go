package relay

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	var buf bytes.Buffer
	s := NewStatus(&buf)

	s.Line(msgStarting)
	s.Linef(msgConfigMissingKey, "OSRS_RSS_URL")

	assert.Equal(t, "🤖 Starting bot..\n🤖 Bot cannot find key 'OSRS_RSS_URL' in environment variables..\n", buf.String())
}

func TestStatus_NilWriter(t *testing.T) {
	assert.NotPanics(t, func() { NewStatus(nil).Line("x") })
}
