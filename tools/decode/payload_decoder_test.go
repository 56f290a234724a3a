package decode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type joinPayload struct {
	UserID    string `json:"userId"`
	AuthToken string `json:"authToken"`
}

type typingPayload struct {
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

func TestMapByJSONTag(t *testing.T) {
	p, err := Map[joinPayload](map[string]any{
		"userId":    "5",
		"authToken": "tok",
	})
	require.NoError(t, err)
	require.Equal(t, "5", p.UserID)
	require.Equal(t, "tok", p.AuthToken)
}

func TestMapCoercesNumericID(t *testing.T) {
	// JSON numbers arrive as float64; identities must land as strings.
	p, err := Map[joinPayload](map[string]any{
		"userId":    float64(5),
		"authToken": "tok",
	})
	require.NoError(t, err)
	require.Equal(t, "5", p.UserID)
}

func TestMapMissingFieldsZeroed(t *testing.T) {
	p, err := Map[joinPayload](map[string]any{"userId": "5"})
	require.NoError(t, err)
	require.Empty(t, p.AuthToken)
}

func TestMapBool(t *testing.T) {
	p, err := Map[typingPayload](map[string]any{
		"receiverId": "9",
		"isTyping":   true,
	})
	require.NoError(t, err)
	require.True(t, p.IsTyping)
}

func TestMapNilPayload(t *testing.T) {
	_, err := Map[joinPayload](nil)
	require.Error(t, err)
}

func TestMapStrictRejectsNumber(t *testing.T) {
	_, err := Map[joinPayload](map[string]any{
		"userId":    float64(5),
		"authToken": "tok",
	}, Options{WeaklyTypedInput: false})
	require.Error(t, err)
}
