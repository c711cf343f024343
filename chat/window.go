package chat

import "encoding/json"

// WindowSize caps the recent-turn history sent to the plan service. Older
// turns are dropped, not summarized.
const WindowSize = 6

// Turn is one context-window entry on the wire.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Window reduces the log to the last WindowSize non-welcome turns. User turns
// carry their raw text; bot turns carry a serialized snapshot of the
// structured payload in the message's own display language.
func Window(msgs []Message) []Turn {
	var turns []Turn
	for _, m := range msgs {
		switch t := m.(type) {
		case *UserMessage:
			turns = append(turns, Turn{Role: "user", Content: t.MainText})
		case *BotMessage:
			if t.Welcome {
				continue
			}
			turns = append(turns, Turn{Role: "assistant", Content: botSnapshot(t)})
		}
	}
	if len(turns) > WindowSize {
		turns = turns[len(turns)-WindowSize:]
	}
	return turns
}

func botSnapshot(m *BotMessage) string {
	c := m.Content.For(m.DisplayLanguage)
	steps := make([]string, 0, len(c.TimelineItems))
	for _, item := range c.TimelineItems {
		step := item.Text
		if item.Name != "" {
			step += " - " + item.Name
		}
		steps = append(steps, step)
	}
	snap := struct {
		City     string   `json:"city"`
		Title    string   `json:"title"`
		Report   string   `json:"report"`
		Timeline []string `json:"timeline"`
	}{m.City, c.Title, c.Report, steps}

	b, err := json.Marshal(snap)
	if err != nil {
		return c.Title
	}
	return string(b)
}
