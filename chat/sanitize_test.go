package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreated = time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)

func TestSanitizeNilFields(t *testing.T) {
	msg := Sanitize("m1", testCreated, nil)
	bot, ok := msg.(*BotMessage)
	require.True(t, ok, "nil document renders as a bot record")
	assert.Equal(t, "m1", bot.ID)
	assert.Equal(t, LangEnglish, bot.DisplayLanguage)
	assert.NotNil(t, bot.Content.EN.TimelineItems)
	assert.NotNil(t, bot.Content.JA.TimelineItems)
	assert.Empty(t, bot.Content.EN.TimelineItems)
}

func TestSanitizeUserRecord(t *testing.T) {
	msg := Sanitize("u1", testCreated, map[string]any{
		"type":     "user",
		"mainText": "What should I wear in Tokyo tomorrow?",
		"subText":  "Translating...",
		"isVoice":  false,
	})
	user, ok := msg.(*UserMessage)
	require.True(t, ok)
	assert.Equal(t, "What should I wear in Tokyo tomorrow?", user.MainText)
	assert.Equal(t, "Translating...", user.SubText)
	assert.False(t, user.Voice)
	assert.Equal(t, testCreated, user.CreatedAt)
}

func TestSanitizeMissingTimelineData(t *testing.T) {
	// A record missing content.en.timeline_data entirely must render with an
	// empty slice, never nil, never a panic.
	msg := Sanitize("b1", testCreated, map[string]any{
		"type": "bot",
		"content": map[string]any{
			"en": map[string]any{"title": "Rainy day plan"},
		},
	})
	bot := msg.(*BotMessage)
	assert.Equal(t, "Rainy day plan", bot.Content.EN.Title)
	require.NotNil(t, bot.Content.EN.TimelineItems)
	assert.Len(t, bot.Content.EN.TimelineItems, 0)
	require.NotNil(t, bot.Content.JA.TimelineItems)
}

func TestSanitizeCoords(t *testing.T) {
	for name, tc := range map[string]struct {
		raw  any
		want []float64
	}{
		"pair":         {[]any{35.68, 139.69}, []float64{35.68, 139.69}},
		"ints":         {[]any{35, 139}, []float64{35, 139}},
		"one element":  {[]any{35.68}, nil},
		"three":        {[]any{1.0, 2.0, 3.0}, nil},
		"strings":      {[]any{"35", "139"}, nil},
		"null":         {nil, nil},
		"wrong type":   {"35,139", nil},
		"typed floats": {[]float64{35.68, 139.69}, []float64{35.68, 139.69}},
	} {
		t.Run(name, func(t *testing.T) {
			msg := Sanitize("b", testCreated, map[string]any{
				"content": map[string]any{
					"en": map[string]any{
						"timeline_data": []any{
							map[string]any{"text": "x", "coords": tc.raw},
						},
					},
				},
			})
			items := msg.(*BotMessage).Content.EN.TimelineItems
			require.Len(t, items, 1)
			assert.Equal(t, tc.want, items[0].Coords)
		})
	}
}

func TestSanitizeObjectWhereStringExpected(t *testing.T) {
	// Field priority: en sub-field, then ja, then stringified fallback.
	msg := Sanitize("b", testCreated, map[string]any{
		"city": map[string]any{"en": "Tokyo", "ja": "東京"},
		"content": map[string]any{
			"en": map[string]any{
				"title":  map[string]any{"ja": "雨の日"},
				"report": map[string]any{"cond": "rain"},
			},
		},
	})
	bot := msg.(*BotMessage)
	assert.Equal(t, "Tokyo", bot.City)
	assert.Equal(t, "雨の日", bot.Content.EN.Title)
	assert.JSONEq(t, `{"cond":"rain"}`, bot.Content.EN.Report)
}

func TestSanitizeWrongTypedLeaves(t *testing.T) {
	msg := Sanitize("b", testCreated, map[string]any{
		"type":            "bot",
		"isWelcome":       "yes", // not a bool
		"displayLanguage": "Klingon",
		"weather":         map[string]any{"temp": 18.0, "icon_code": "10d"},
		"category":        42,
	})
	bot := msg.(*BotMessage)
	assert.False(t, bot.Welcome)
	assert.Equal(t, LangEnglish, bot.DisplayLanguage)
	assert.Equal(t, "18", bot.Weather.Temp)
	assert.Equal(t, "10d", bot.Weather.IconCode)
	assert.Equal(t, "42", bot.Category)
}

func TestSanitizeDeeplyMalformed(t *testing.T) {
	// Every container replaced by a scalar, every scalar by a container.
	msg := Sanitize("b", testCreated, map[string]any{
		"type":    map[string]any{},
		"weather": "sunny",
		"content": map[string]any{
			"en": "not an object",
			"ja": map[string]any{
				"timeline_data": []any{"just a string", nil, 3.5},
			},
		},
	})
	bot, ok := msg.(*BotMessage)
	require.True(t, ok)
	assert.Equal(t, Weather{}, bot.Weather)
	items := bot.Content.JA.TimelineItems
	require.Len(t, items, 3)
	assert.Equal(t, "just a string", items[0].Text)
	assert.Equal(t, "", items[1].Text)
	assert.Equal(t, "3.5", items[2].Text)
}

func TestSanitizeIdempotent(t *testing.T) {
	raws := []map[string]any{
		nil,
		{"type": "user", "mainText": "hello", "isVoice": true},
		{
			"type":            "bot",
			"displayLanguage": "Japanese",
			"city":            map[string]any{"ja": "京都"},
			"weather":         map[string]any{"temp": 21, "iconCode": "01d"},
			"content": map[string]any{
				"en": map[string]any{
					"title": "Kyoto in spring",
					"timeline_data": []any{
						map[string]any{"text": "9:00", "coords": []any{35.0, 135.7}, "name": "Gion"},
					},
				},
			},
		},
	}
	for _, raw := range raws {
		once := Sanitize("id", testCreated, raw)
		twice := Sanitize("id", testCreated, Doc(once))
		assert.Equal(t, once, twice)
	}
}
