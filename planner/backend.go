package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/n3utr7no/Kaze-AI/chat"
)

// Backend speaks to the assistant backend's POST /generate_plan endpoint.
type Backend struct {
	client *http.Client
	apiURL string
}

func NewBackend(baseURL string) *Backend {
	return &Backend{
		// No per-request timeout here: the caller bounds the call with its
		// context, and plan generation legitimately runs tens of seconds.
		client: &http.Client{},
		apiURL: strings.TrimRight(baseURL, "/") + "/generate_plan",
	}
}

// tempValue tolerates both shapes the service sends: a number, or the
// string "--" when its weather lookup failed.
type tempValue string

func (t *tempValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = tempValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = tempValue(n.String())
	return nil
}

type planResponse struct {
	City    string `json:"city"`
	Weather struct {
		Temp     tempValue `json:"temp"`
		IconCode string    `json:"icon_code"`
	} `json:"weather"`
	Category        string                `json:"category"`
	Content         chat.BilingualContent `json:"content"`
	UserTranslation string                `json:"user_translation"`
	Error           string                `json:"error"`
}

func (b *Backend) Generate(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("plan request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("plan API error %d", resp.StatusCode)
	}

	var pResp planResponse
	if err := json.NewDecoder(resp.Body).Decode(&pResp); err != nil {
		return Result{}, fmt.Errorf("plan response parse error: %w", err)
	}
	if pResp.Error != "" {
		return Result{}, fmt.Errorf("plan API: %s", pResp.Error)
	}

	return Result{
		City: pResp.City,
		Weather: chat.Weather{
			Temp:     string(pResp.Weather.Temp),
			IconCode: pResp.Weather.IconCode,
		},
		Category:        pResp.Category,
		Content:         normalizeContent(pResp.Content),
		UserTranslation: strings.TrimSpace(pResp.UserTranslation),
	}, nil
}

// normalizeContent enforces the schema invariant that timeline sequences are
// never absent, so a response with a missing list commits cleanly.
func normalizeContent(c chat.BilingualContent) chat.BilingualContent {
	if c.EN.TimelineItems == nil {
		c.EN.TimelineItems = []chat.TimelineItem{}
	}
	if c.JA.TimelineItems == nil {
		c.JA.TimelineItems = []chat.TimelineItem{}
	}
	return c
}
