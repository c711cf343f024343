package chat

import (
	"strings"
	"time"
)

// Language is the rendering/TTS language. Exactly two values exist; anything
// else collapses to English during sanitization.
type Language string

const (
	LangEnglish  Language = "English"
	LangJapanese Language = "Japanese"
)

// ParseLanguage maps arbitrary input to one of the two valid languages.
func ParseLanguage(s string) Language {
	switch strings.ToLower(s) {
	case "ja", "jp", "japanese":
		return LangJapanese
	}
	return LangEnglish
}

// Other returns the opposite language.
func (l Language) Other() Language {
	if l == LangJapanese {
		return LangEnglish
	}
	return LangJapanese
}

type Weather struct {
	Temp     string `json:"temp"`
	IconCode string `json:"icon_code"`
}

// TimelineItem is one itinerary step. Coords is nil or exactly [lat, lon].
type TimelineItem struct {
	Text   string    `json:"text"`
	Coords []float64 `json:"coords"`
	Name   string    `json:"name"`
}

type LocalizedContent struct {
	Title         string         `json:"title"`
	Report        string         `json:"report"`
	TimelineItems []TimelineItem `json:"timeline_items"`
}

type BilingualContent struct {
	EN LocalizedContent `json:"en"`
	JA LocalizedContent `json:"ja"`
}

// For returns the variant for the given language.
func (c BilingualContent) For(lang Language) LocalizedContent {
	if lang == LangJapanese {
		return c.JA
	}
	return c.EN
}

// Message is the sealed user/bot union. Switching on the concrete type is
// exhaustive: nothing outside this package implements it.
type Message interface {
	MessageID() string
	Created() time.Time
	isMessage()
}

type UserMessage struct {
	ID        string
	MainText  string
	SubText   string
	Voice     bool
	CreatedAt time.Time
}

type BotMessage struct {
	ID              string
	Welcome         bool
	DisplayLanguage Language
	City            string
	Weather         Weather
	Category        string
	Content         BilingualContent
	CreatedAt       time.Time
}

func (m *UserMessage) MessageID() string { return m.ID }
func (m *UserMessage) Created() time.Time { return m.CreatedAt }
func (m *UserMessage) isMessage()         {}

func (m *BotMessage) MessageID() string { return m.ID }
func (m *BotMessage) Created() time.Time { return m.CreatedAt }
func (m *BotMessage) isMessage()         {}

// Doc renders the message as the store document this client writes. The field
// names here are the persisted schema; Sanitize is its inverse.
func Doc(m Message) map[string]any {
	switch t := m.(type) {
	case *UserMessage:
		return map[string]any{
			"type":     "user",
			"mainText": t.MainText,
			"subText":  t.SubText,
			"isVoice":  t.Voice,
		}
	case *BotMessage:
		return map[string]any{
			"type":            "bot",
			"isWelcome":       t.Welcome,
			"displayLanguage": string(t.DisplayLanguage),
			"city":            t.City,
			"weather": map[string]any{
				"temp":     t.Weather.Temp,
				"iconCode": t.Weather.IconCode,
			},
			"category": t.Category,
			"content": map[string]any{
				"en": localizedDoc(t.Content.EN),
				"ja": localizedDoc(t.Content.JA),
			},
		}
	}
	return map[string]any{"type": "bot"}
}

func localizedDoc(c LocalizedContent) map[string]any {
	items := make([]any, len(c.TimelineItems))
	for i, it := range c.TimelineItems {
		var coords any
		if it.Coords != nil {
			coords = []any{it.Coords[0], it.Coords[1]}
		}
		items[i] = map[string]any{
			"text":   it.Text,
			"coords": coords,
			"name":   it.Name,
		}
	}
	return map[string]any{
		"title":         c.Title,
		"report":        c.Report,
		"timeline_data": items,
	}
}
