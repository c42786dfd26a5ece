package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTranslator_T(t *testing.T) {
	tr := NewTranslator("en", zap.NewNop())

	tests := []struct {
		name     string
		key      string
		data     map[string]any
		expected string
	}{
		{name: "plain", key: "cb_joined", expected: "Joined!"},
		{name: "template", key: "autochoose_status", data: map[string]any{"State": "ON"}, expected: "ℹ️ Autochoose: <b>ON</b>"},
		{name: "unknown key", key: "no_such_key", expected: "no_such_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tr.T(tt.key, tt.data))
		})
	}
}

func TestTranslator_UnknownLocaleFallsBack(t *testing.T) {
	tr := NewTranslator("xx-invalid-locale-tag", zap.NewNop())

	assert.Equal(t, "Ended.", tr.T("cb_ended", nil))
}

func TestTranslator_MultilineMessages(t *testing.T) {
	tr := NewTranslator("de", zap.NewNop())

	card := tr.T("card", map[string]any{
		"Title": "Summer", "Prize": "Book", "Host": "Alice", "Conditions": "None",
		"Entries": 3, "Winners": 1, "EndsIn": "5m",
	})

	assert.Contains(t, card, "<b>Prize:</b> Book")
	assert.Contains(t, card, "<b>Entries:</b> 3")
	assert.Contains(t, card, "<b>Ends In:</b> 5m")
}
