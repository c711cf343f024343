// Package planner shapes and sends plan-generation requests to the assistant
// backend. The request carries the bounded context window built by chat; the
// response is the bilingual structured plan committed to history.
package planner

import (
	"context"

	"github.com/n3utr7no/Kaze-AI/chat"
	"github.com/n3utr7no/Kaze-AI/geo"
)

// Request is the POST /generate_plan body. History is already windowed; this
// package does not re-trim it.
type Request struct {
	Text     string        `json:"text"`
	Category string        `json:"category"`
	Language chat.Language `json:"language"`
	History  []chat.Turn   `json:"history"`
	Location *geo.Point    `json:"user_location,omitempty"`
}

// Result is the generated plan plus the translation of the user's utterance,
// used to patch the pending text-submitted message.
type Result struct {
	City            string
	Weather         chat.Weather
	Category        string
	Content         chat.BilingualContent
	UserTranslation string
}

type Client interface {
	Generate(ctx context.Context, req Request) (Result, error)
}
