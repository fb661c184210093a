package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/logger"
)

func TestValidateUpdate(t *testing.T) {
	bot := &Bot{logger: logger.NewTestLogger(t)}

	tests := []struct {
		name    string
		payload string
		wantOK  bool
	}{
		{
			name:    "text message",
			payload: `{"update_id":1,"message":{"chat":{"id":42},"text":"hello"}}`,
			wantOK:  true,
		},
		{
			name:    "message without text",
			payload: `{"update_id":2,"message":{"chat":{"id":42}}}`,
			wantOK:  true,
		},
		{
			name:    "non-message update",
			payload: `{"update_id":3}`,
			wantOK:  true,
		},
		{
			name:    "missing update_id",
			payload: `{"message":{"chat":{"id":42},"text":"hello"}}`,
			wantOK:  false,
		},
		{
			name:    "message without chat",
			payload: `{"update_id":4,"message":{"text":"hello"}}`,
			wantOK:  false,
		},
		{
			name:    "chat id wrong type",
			payload: `{"update_id":5,"message":{"chat":{"id":"42"},"text":"hello"}}`,
			wantOK:  false,
		},
		{
			name:    "not json",
			payload: `not json`,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bot.validateUpdate([]byte(tt.payload))
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestOptionKeyboard(t *testing.T) {
	kb := optionKeyboard([]string{"One Way", "Round Trip"})

	require.Len(t, kb.Keyboard, 2)
	require.Len(t, kb.Keyboard[0], 1)
	assert.Equal(t, "One Way", kb.Keyboard[0][0].Text)
	assert.Equal(t, "Round Trip", kb.Keyboard[1][0].Text)
	assert.True(t, kb.OneTimeKeyboard)
}
