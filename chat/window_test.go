package chat

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMsg(i int) Message {
	return &UserMessage{ID: fmt.Sprintf("u%d", i), MainText: fmt.Sprintf("question %d", i), CreatedAt: time.Unix(int64(i), 0)}
}

func botMsg(i int) Message {
	return &BotMessage{
		ID:              fmt.Sprintf("b%d", i),
		DisplayLanguage: LangEnglish,
		City:            "Tokyo",
		Content: BilingualContent{EN: LocalizedContent{
			Title:         fmt.Sprintf("answer %d", i),
			Report:        "sunny",
			TimelineItems: []TimelineItem{{Text: "9:00", Name: "Shibuya"}},
		}},
		CreatedAt: time.Unix(int64(i), 0),
	}
}

func TestWindowCapsAtSix(t *testing.T) {
	var msgs []Message
	for i := 0; i < 20; i++ {
		msgs = append(msgs, userMsg(i), botMsg(i))
	}
	turns := Window(msgs)
	require.Len(t, turns, WindowSize)
	// The most recent turns survive.
	assert.Equal(t, "assistant", turns[WindowSize-1].Role)
	assert.Contains(t, turns[WindowSize-1].Content, "answer 19")
}

func TestWindowExcludesWelcome(t *testing.T) {
	welcome := &BotMessage{ID: "w", Welcome: true, CreatedAt: time.Unix(0, 0)}
	turns := Window([]Message{welcome, userMsg(1), botMsg(1)})
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "question 1", turns[0].Content)
}

func TestWindowEmptyLog(t *testing.T) {
	assert.Empty(t, Window(nil))
	assert.Empty(t, Window([]Message{&BotMessage{Welcome: true}}))
}

func TestWindowAssistantSnapshot(t *testing.T) {
	turns := Window([]Message{botMsg(3)})
	require.Len(t, turns, 1)

	var snap struct {
		City     string   `json:"city"`
		Title    string   `json:"title"`
		Report   string   `json:"report"`
		Timeline []string `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal([]byte(turns[0].Content), &snap))
	assert.Equal(t, "Tokyo", snap.City)
	assert.Equal(t, "answer 3", snap.Title)
	assert.Equal(t, []string{"9:00 - Shibuya"}, snap.Timeline)
}

func TestWindowUsesMessageDisplayLanguage(t *testing.T) {
	bot := &BotMessage{
		ID:              "b",
		DisplayLanguage: LangJapanese,
		Content: BilingualContent{
			EN: LocalizedContent{Title: "english title"},
			JA: LocalizedContent{Title: "日本語タイトル"},
		},
	}
	turns := Window([]Message{bot})
	require.Len(t, turns, 1)
	assert.Contains(t, turns[0].Content, "日本語タイトル")
}
