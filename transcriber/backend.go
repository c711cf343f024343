package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
)

// Backend speaks to the assistant backend's POST /transcribe endpoint.
type Backend struct {
	client  *TracedClient
	apiURL  string
	metrics func(*NetworkMetrics)
}

// NewBackend builds a client against baseURL. onMetrics, if non-nil, receives
// the per-request network phase breakdown.
func NewBackend(baseURL string, onMetrics func(*NetworkMetrics)) *Backend {
	return &Backend{
		client:  NewTracedClient(),
		apiURL:  strings.TrimRight(baseURL, "/") + "/transcribe",
		metrics: onMetrics,
	}
}

type transcribeResponse struct {
	Transcript  string `json:"transcript"`
	Translation string `json:"translation"`
	Error       string `json:"error"`
}

func (b *Backend) Transcribe(ctx context.Context, audio []byte, container string) (Pair, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// The extension matters: the service decodes by filename.
	part, err := writer.CreateFormFile("audio", "utterance."+container)
	if err != nil {
		return Pair{}, err
	}
	if _, err := part.Write(audio); err != nil {
		return Pair{}, err
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, &body)
	if err != nil {
		return Pair{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return Pair{}, fmt.Errorf("transcribe request: %w", err)
	}
	if b.metrics != nil {
		b.metrics(resp.Metrics)
	}

	if resp.StatusCode != http.StatusOK {
		return Pair{}, fmt.Errorf("transcribe API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var tResp transcribeResponse
	if err := json.Unmarshal(resp.Body, &tResp); err != nil {
		return Pair{}, fmt.Errorf("transcribe response parse error: %w", err)
	}
	if tResp.Error != "" {
		return Pair{}, fmt.Errorf("transcribe API: %s", tResp.Error)
	}

	pair := Pair{
		Source:     strings.TrimSpace(tResp.Transcript),
		Translated: strings.TrimSpace(tResp.Translation),
	}
	if pair.Source == "" || pair.Translated == "" {
		return Pair{}, ErrPartialPair
	}
	return pair, nil
}
