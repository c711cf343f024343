package chat

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Sanitize maps one raw store document onto the internal schema. It is total:
// any JSON-compatible input yields a valid Message, so rendering never has to
// defend against missing fields, old schema versions or writes still in
// flight from another client. Missing or null leaves become empty defaults;
// an object where a string is expected resolves en, then ja, then a JSON
// stringification of the whole value.
func Sanitize(id string, createdAt time.Time, fields map[string]any) Message {
	if fields == nil {
		fields = map[string]any{}
	}

	if asString(fields["type"]) == "user" {
		return &UserMessage{
			ID:        id,
			MainText:  asString(fields["mainText"]),
			SubText:   asString(fields["subText"]),
			Voice:     asBool(fields["isVoice"]),
			CreatedAt: createdAt,
		}
	}

	// Everything that is not a user record renders as a bot record.
	content, _ := fields["content"].(map[string]any)
	return &BotMessage{
		ID:              id,
		Welcome:         asBool(fields["isWelcome"]),
		DisplayLanguage: ParseLanguage(asString(fields["displayLanguage"])),
		City:            asString(fields["city"]),
		Weather:         sanitizeWeather(fields["weather"]),
		Category:        asString(fields["category"]),
		Content: BilingualContent{
			EN: sanitizeLocalized(sub(content, "en")),
			JA: sanitizeLocalized(sub(content, "ja")),
		},
		CreatedAt: createdAt,
	}
}

func sub(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	inner, _ := m[key].(map[string]any)
	return inner
}

func sanitizeWeather(v any) Weather {
	m, _ := v.(map[string]any)
	if m == nil {
		return Weather{}
	}
	icon := asString(m["iconCode"])
	if icon == "" {
		// tolerate the wire-side spelling
		icon = asString(m["icon_code"])
	}
	return Weather{Temp: asString(m["temp"]), IconCode: icon}
}

func sanitizeLocalized(m map[string]any) LocalizedContent {
	c := LocalizedContent{TimelineItems: []TimelineItem{}}
	if m == nil {
		return c
	}
	c.Title = asString(m["title"])
	c.Report = asString(m["report"])
	items, _ := m["timeline_data"].([]any)
	for _, raw := range items {
		c.TimelineItems = append(c.TimelineItems, sanitizeTimelineItem(raw))
	}
	return c
}

func sanitizeTimelineItem(v any) TimelineItem {
	m, _ := v.(map[string]any)
	if m == nil {
		return TimelineItem{Text: asString(v)}
	}
	return TimelineItem{
		Text:   asString(m["text"]),
		Coords: asCoords(m["coords"]),
		Name:   asString(m["name"]),
	}
}

// asCoords accepts only a two-element numeric pair; everything else is nil.
func asCoords(v any) []float64 {
	list, ok := v.([]any)
	if !ok || len(list) != 2 {
		if pair, ok := v.([]float64); ok && len(pair) == 2 {
			return []float64{pair[0], pair[1]}
		}
		return nil
	}
	lat, ok1 := asNumber(list[0])
	lon, ok2 := asNumber(list[1])
	if !ok1 || !ok2 {
		return nil
	}
	return []float64{lat, lon}
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		for _, key := range []string{"en", "ja"} {
			if s, ok := t[key].(string); ok && s != "" {
				return s
			}
		}
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprint(t)
	default:
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprint(t)
	}
}
