package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func transcribeServer(t *testing.T, status int, resp any, gotFile *string, gotBody *[]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("missing audio form file: %v", err)
		}
		defer file.Close()
		if gotFile != nil {
			*gotFile = header.Filename
		}
		if gotBody != nil {
			*gotBody, _ = io.ReadAll(file)
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestTranscribeSuccess(t *testing.T) {
	var filename string
	var payload []byte
	srv := transcribeServer(t, 200, map[string]string{
		"transcript":  "明日の東京の天気は?",
		"translation": "What is the weather in Tokyo tomorrow?",
	}, &filename, &payload)
	defer srv.Close()

	b := NewBackend(srv.URL, nil)
	pair, err := b.Transcribe(context.Background(), []byte("flacdata"), "flac")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if pair.Source != "明日の東京の天気は?" {
		t.Errorf("source = %q", pair.Source)
	}
	if pair.Translated != "What is the weather in Tokyo tomorrow?" {
		t.Errorf("translated = %q", pair.Translated)
	}
	if filename != "utterance.flac" {
		t.Errorf("filename = %q, want container hint preserved", filename)
	}
	if string(payload) != "flacdata" {
		t.Errorf("payload = %q", payload)
	}
}

func TestTranscribePartialPairFails(t *testing.T) {
	for name, resp := range map[string]map[string]string{
		"missing translation": {"transcript": "こんにちは"},
		"missing transcript":  {"translation": "hello"},
		"both empty":          {},
		"whitespace only":     {"transcript": "  ", "translation": "hello"},
	} {
		t.Run(name, func(t *testing.T) {
			srv := transcribeServer(t, 200, resp, nil, nil)
			defer srv.Close()

			_, err := NewBackend(srv.URL, nil).Transcribe(context.Background(), []byte("x"), "wav")
			if !errors.Is(err, ErrPartialPair) {
				t.Fatalf("err = %v, want ErrPartialPair", err)
			}
		})
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := transcribeServer(t, 500, map[string]string{"error": "whisper exploded"}, nil, nil)
	defer srv.Close()

	_, err := NewBackend(srv.URL, nil).Transcribe(context.Background(), []byte("x"), "flac")
	if err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestTranscribeErrorField(t *testing.T) {
	srv := transcribeServer(t, 200, map[string]string{"error": "no audio"}, nil, nil)
	defer srv.Close()

	_, err := NewBackend(srv.URL, nil).Transcribe(context.Background(), []byte("x"), "flac")
	if err == nil {
		t.Fatal("expected error when the response carries an error field")
	}
}

func TestTranscribeReportsMetrics(t *testing.T) {
	srv := transcribeServer(t, 200, map[string]string{"transcript": "a", "translation": "b"}, nil, nil)
	defer srv.Close()

	var got *NetworkMetrics
	b := NewBackend(srv.URL, func(m *NetworkMetrics) { got = m })
	if _, err := b.Transcribe(context.Background(), []byte("x"), "flac"); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got == nil || got.Total <= 0 {
		t.Errorf("metrics = %+v, want populated", got)
	}
}
