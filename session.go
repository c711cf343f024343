package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/n3utr7no/Kaze-AI/chat"
	"github.com/n3utr7no/Kaze-AI/geo"
	"github.com/n3utr7no/Kaze-AI/log"
	"github.com/n3utr7no/Kaze-AI/planner"
	"github.com/n3utr7no/Kaze-AI/transcriber"
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
	StateVerification
	StatePlanning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	case StateVerification:
		return "verification"
	case StatePlanning:
		return "planning"
	}
	return "unknown"
}

// callTimeout bounds each external call so a hung backend returns the
// session to idle instead of wedging it. History writes run under their own
// writeTimeout: a plan call that spent its whole budget must not starve the
// follow-up commits.
const (
	callTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

const translatingPlaceholder = "Translating..."

// CaptureSource is one microphone session. Stop returns the finished
// payload and its container name; zero captured audio returns an empty
// payload without error.
type CaptureSource interface {
	Start() error
	Stop() ([]byte, string, error)
}

// History is the slice of the store the session writes through.
type History interface {
	Append(ctx context.Context, m chat.Message) (string, error)
	PatchSubText(ctx context.Context, id, sub string) error
	Messages() []chat.Message
}

type Notify interface {
	Show(msg string)
}

// Session drives one conversation: capture, transcription, verification and
// plan generation. One user-initiated transition runs to completion before
// the next is accepted; actions arriving in the wrong state are rejected.
// All conversation state flows out through the history store's feed.
type Session struct {
	capture  CaptureSource
	stt      transcriber.Client
	plan     planner.Client
	history  History
	notify   Notify
	location *geo.Point

	onState func(State)

	timeout time.Duration

	mu       sync.Mutex
	state    State
	stopping bool
	pair     transcriber.Pair
	category string
	lang     chat.Language
}

func NewSession(capture CaptureSource, stt transcriber.Client, plan planner.Client, history History, notify Notify) *Session {
	return &Session{
		capture:  capture,
		stt:      stt,
		plan:     plan,
		history:  history,
		notify:   notify,
		timeout:  callTimeout,
		category: "Travel",
		lang:     chat.LangEnglish,
	}
}

// OnState registers the state observer. Set before first use.
func (s *Session) OnState(fn func(State)) { s.onState = fn }

// SetLocation attaches a best-effort device location to plan requests.
func (s *Session) SetLocation(p *geo.Point) { s.location = p }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

func (s *Session) SetCategory(c string) {
	s.mu.Lock()
	s.category = c
	s.mu.Unlock()
}

func (s *Session) Language() chat.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

func (s *Session) SetLanguage(l chat.Language) {
	s.mu.Lock()
	s.lang = l
	s.mu.Unlock()
}

// Pending returns the transcript awaiting confirmation, valid only in the
// verification state.
func (s *Session) Pending() transcriber.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair
}

// transition moves from exactly one state to another; any other current
// state rejects the action.
func (s *Session) transition(from, to State) bool {
	s.mu.Lock()
	if s.state != from {
		s.mu.Unlock()
		return false
	}
	s.state = to
	fn := s.onState
	s.mu.Unlock()
	if fn != nil {
		fn(to)
	}
	return true
}

func (s *Session) setState(to State) {
	s.mu.Lock()
	s.state = to
	fn := s.onState
	s.mu.Unlock()
	if fn != nil {
		fn(to)
	}
}

// StartCapture acquires the microphone. Only accepted while idle.
func (s *Session) StartCapture() error {
	if !s.transition(StateIdle, StateRecording) {
		return fmt.Errorf("start capture: session is %s", s.State())
	}
	if err := s.capture.Start(); err != nil {
		log.Errorf("capture start: %v", err)
		s.notify.Show("Microphone unavailable")
		s.setState(StateIdle)
		return err
	}
	log.Info("recording_start")
	return nil
}

// StopCapture finishes the recording and runs transcription. An empty
// capture returns to idle silently without ever entering the transcribing
// state; a transcription failure notifies and records nothing.
func (s *Session) StopCapture() {
	s.mu.Lock()
	if s.state != StateRecording || s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.stopping = false
		s.mu.Unlock()
	}()

	log.Info("recording_stop")
	payload, container, err := s.capture.Stop()
	if err != nil {
		log.Errorf("capture stop: %v", err)
		s.notify.Show("Microphone unavailable")
		s.setState(StateIdle)
		return
	}
	if len(payload) == 0 {
		log.Info("empty_capture")
		s.setState(StateIdle)
		return
	}
	s.setState(StateTranscribing)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	pair, err := s.stt.Transcribe(ctx, payload, container)
	if err != nil {
		log.Errorf("transcription: %v", err)
		s.notify.Show("Transcription failed. Please try again.")
		s.setState(StateIdle)
		return
	}

	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()
	log.ConversationText(pair.Source)
	s.setState(StateVerification)
}

// Retry discards the pending transcript without recording anything.
func (s *Session) Retry() {
	s.mu.Lock()
	if s.state != StateVerification {
		s.mu.Unlock()
		return
	}
	s.pair = transcriber.Pair{}
	s.state = StateIdle
	fn := s.onState
	s.mu.Unlock()
	if fn != nil {
		fn(StateIdle)
	}
	log.Info("verification_retry")
}

// Confirm commits the verified transcript as a user message and requests a
// plan for it. Both transcript languages are already known, so no
// placeholder is needed; the plan request always uses the source-language
// text, whatever the display language.
func (s *Session) Confirm() {
	if !s.transition(StateVerification, StatePlanning) {
		return
	}

	s.mu.Lock()
	pair := s.pair
	s.pair = transcriber.Pair{}
	lang := s.lang
	s.mu.Unlock()

	main, sub := pair.Translated, pair.Source
	if lang == chat.LangJapanese {
		main, sub = pair.Source, pair.Translated
	}

	window := chat.Window(s.history.Messages())

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if _, err := s.history.Append(ctx, &chat.UserMessage{
		MainText: main,
		SubText:  sub,
		Voice:    true,
	}); err != nil {
		log.Errorf("append user message: %v", err)
		s.notify.Show("Couldn't save your message")
		s.setState(StateIdle)
		return
	}

	s.generate(pair.Source, "", window)
	s.setState(StateIdle)
}

// SubmitText skips capture and verification: the typed text goes straight
// into history with a translation placeholder that the plan response
// patches afterwards.
func (s *Session) SubmitText(text string) {
	if text == "" {
		return
	}
	if !s.transition(StateIdle, StatePlanning) {
		return
	}

	window := chat.Window(s.history.Messages())

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	id, err := s.history.Append(ctx, &chat.UserMessage{
		MainText: text,
		SubText:  translatingPlaceholder,
	})
	if err != nil {
		log.Errorf("append user message: %v", err)
		s.notify.Show("Couldn't save your message")
		s.setState(StateIdle)
		return
	}

	log.ConversationText(text)
	s.generate(text, id, window)
	s.setState(StateIdle)
}

// generate runs the plan request and commits the outcome. A failure becomes
// both a notification and a durable bilingual error record, so the broken
// turn stays visible in the conversation. patchID, when set, names the user
// message whose placeholder subText is replaced by the returned translation.
func (s *Session) generate(utterance, patchID string, window []chat.Turn) {
	s.mu.Lock()
	category := s.category
	lang := s.lang
	s.mu.Unlock()

	planCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	start := time.Now()
	result, err := s.plan.Generate(planCtx, planner.Request{
		Text:     utterance,
		Category: category,
		Language: lang,
		History:  window,
		Location: s.location,
	})
	cancel()

	// The plan context may already be expired (that is exactly the timeout
	// case); the commits below run on a fresh budget so the outcome still
	// reaches the durable log.
	ctx, cancelWrite := context.WithTimeout(context.Background(), writeTimeout)
	defer cancelWrite()

	if err != nil {
		log.Errorf("plan generation: %v", err)
		s.notify.Show("Couldn't generate a response. Please try again.")
		if _, err := s.history.Append(ctx, planErrorMessage(lang)); err != nil {
			log.Errorf("append error record: %v", err)
		}
		return
	}
	log.PlanMetrics(category, result.City, float64(time.Since(start).Milliseconds()), len(window))

	if patchID != "" && result.UserTranslation != "" {
		if err := s.history.PatchSubText(ctx, patchID, result.UserTranslation); err != nil {
			log.Errorf("patch translation: %v", err)
		}
	}

	if _, err := s.history.Append(ctx, &chat.BotMessage{
		DisplayLanguage: lang,
		City:            result.City,
		Weather:         result.Weather,
		Category:        result.Category,
		Content:         result.Content,
	}); err != nil {
		log.Errorf("append bot message: %v", err)
		s.notify.Show("Couldn't save the response")
	}
}

func planErrorMessage(lang chat.Language) chat.Message {
	return &chat.BotMessage{
		DisplayLanguage: lang,
		Category:        "System",
		Content: chat.BilingualContent{
			EN: chat.LocalizedContent{
				Title:         "Something went wrong",
				Report:        "I couldn't generate a response. Please try again.",
				TimelineItems: []chat.TimelineItem{},
			},
			JA: chat.LocalizedContent{
				Title:         "エラーが発生しました",
				Report:        "応答を生成できませんでした。もう一度お試しください。",
				TimelineItems: []chat.TimelineItem{},
			},
		},
	}
}
