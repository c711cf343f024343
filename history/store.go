package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/n3utr7no/Kaze-AI/chat"
)

// Store is the single source of truth for the conversation log. It consumes
// the collection's live feed read-only: every snapshot replaces the in-memory
// log wholesale with freshly sanitized messages, so a malformed record can
// never corrupt rendering, and mid-transition deliveries are safe because
// consumers only ever see complete snapshots.
type Store struct {
	col  Collection
	lang chat.Language

	mu     sync.Mutex
	msgs   []chat.Message
	seeded bool
	unsub  func()

	onChange func([]chat.Message)
	onError  func(error)
}

func New(col Collection, lang chat.Language) *Store {
	return &Store{col: col, lang: lang}
}

// OnChange registers the snapshot consumer. Set before Start.
func (s *Store) OnChange(fn func([]chat.Message)) { s.onChange = fn }

// OnError registers the asynchronous feed error consumer. Set before Start.
func (s *Store) OnError(fn func(error)) { s.onError = fn }

// Start subscribes to the live feed. The first observed empty snapshot seeds
// exactly one welcome record; the seeded latch keeps a re-delivered empty
// snapshot from seeding a second.
func (s *Store) Start(ctx context.Context) error {
	unsub, err := s.col.Subscribe(ctx, func(records []Record) {
		s.apply(ctx, records)
	}, func(err error) {
		s.reportError(fmt.Errorf("history subscription: %w", err))
	})
	if err != nil {
		return fmt.Errorf("history subscription: %w", err)
	}
	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()
	return nil
}

func (s *Store) Stop() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (s *Store) apply(ctx context.Context, records []Record) {
	msgs := make([]chat.Message, len(records))
	for i, r := range records {
		msgs[i] = chat.Sanitize(r.ID, r.CreatedAt, r.Fields)
	}

	s.mu.Lock()
	s.msgs = msgs
	seed := len(records) == 0 && !s.seeded
	if seed {
		s.seeded = true
	}
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(msgs)
	}
	if seed {
		if _, err := s.Append(ctx, WelcomeMessage(s.lang)); err != nil {
			s.reportError(fmt.Errorf("seeding welcome record: %w", err))
		}
	}
}

// Messages returns the current log snapshot, ordered ascending by creation
// time. The returned slice is the caller's to keep.
func (s *Store) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Append writes one message; the collection assigns the creation time.
func (s *Store) Append(ctx context.Context, m chat.Message) (string, error) {
	id := uuid.NewString()
	if err := s.col.Add(ctx, id, chat.Doc(m)); err != nil {
		return "", fmt.Errorf("history append: %w", err)
	}
	return id, nil
}

// PatchSubText updates the subText of one message in place. No other field,
// nor ordering, is touched.
func (s *Store) PatchSubText(ctx context.Context, id, sub string) error {
	if err := s.col.Update(ctx, id, map[string]any{"subText": sub}); err != nil {
		return fmt.Errorf("history patch subText: %w", err)
	}
	return nil
}

// PatchDisplayLanguage updates the displayLanguage of one message in place.
func (s *Store) PatchDisplayLanguage(ctx context.Context, id string, lang chat.Language) error {
	if err := s.col.Update(ctx, id, map[string]any{"displayLanguage": string(lang)}); err != nil {
		return fmt.Errorf("history patch displayLanguage: %w", err)
	}
	return nil
}

// Clear deletes every record for the identity, one document at a time. The
// operation is not atomic: the first failure stops it and leaves whatever
// partial state resulted, which the next feed snapshot makes authoritative.
func (s *Store) Clear(ctx context.Context) error {
	ids, err := s.col.DocumentIDs(ctx)
	if err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	for _, id := range ids {
		if err := s.col.Delete(ctx, id); err != nil {
			return fmt.Errorf("history clear (partial): %w", err)
		}
	}
	return nil
}

func (s *Store) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

// WelcomeMessage builds the synthetic bilingual first record shown when the
// log is empty.
func WelcomeMessage(lang chat.Language) chat.Message {
	return &chat.BotMessage{
		Welcome:         true,
		DisplayLanguage: lang,
		Category:        "System",
		Content: chat.BilingualContent{
			EN: chat.LocalizedContent{
				Title:  "Welcome to Kaze",
				Report: "Ask me about travel plans, what to wear, or the weather. Hold the mic key to speak, or type your question.",
				TimelineItems: []chat.TimelineItem{
					{Text: "What should I do in Kyoto tomorrow?"},
					{Text: "What should I wear in Tokyo today?"},
					{Text: "Will it rain here this weekend?"},
				},
			},
			JA: chat.LocalizedContent{
				Title:  "Kazeへようこそ",
				Report: "旅行プラン、服装、天気について聞いてください。マイクキーを押して話すか、質問を入力してください。",
				TimelineItems: []chat.TimelineItem{
					{Text: "明日の京都で何をすべきですか？"},
					{Text: "今日の東京では何を着るべきですか？"},
					{Text: "今週末はここで雨が降りますか？"},
				},
			},
		},
	}
}
