package history

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3utr7no/Kaze-AI/chat"
)

func startedStore(t *testing.T, col *MemoryCollection) *Store {
	t.Helper()
	s := New(col, chat.LangEnglish)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)
	return s
}

func TestEmptyFeedSeedsOneWelcome(t *testing.T) {
	col := NewMemoryCollection()
	s := startedStore(t, col)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	bot, ok := msgs[0].(*chat.BotMessage)
	require.True(t, ok)
	assert.True(t, bot.Welcome)
	assert.Equal(t, "System", bot.Category)
	assert.NotEmpty(t, bot.Content.EN.Title)
	assert.NotEmpty(t, bot.Content.JA.Title)
}

func TestEmptySnapshotAfterSeedDoesNotReseed(t *testing.T) {
	col := NewMemoryCollection()
	s := startedStore(t, col)
	require.Equal(t, 1, col.Len())

	// An eventually-consistent feed may re-deliver stale snapshots; a second
	// empty one must not produce a second welcome record.
	s.apply(context.Background(), nil)
	assert.Equal(t, 1, col.Len())
}

func TestNonEmptyFeedNeverSeeds(t *testing.T) {
	col := NewMemoryCollection()
	require.NoError(t, col.Add(context.Background(), "u1", map[string]any{"type": "user", "mainText": "hi"}))

	s := startedStore(t, col)
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	_, ok := msgs[0].(*chat.UserMessage)
	assert.True(t, ok)
}

func TestAppendOrderingIsAscendingByCreatedAt(t *testing.T) {
	col := NewMemoryCollection()
	s := startedStore(t, col)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, &chat.UserMessage{MainText: "turn"})
		require.NoError(t, err)
	}

	msgs := s.Messages()
	require.Len(t, msgs, 6) // welcome + 5
	sorted := sort.SliceIsSorted(msgs, func(i, j int) bool {
		return msgs[i].Created().Before(msgs[j].Created())
	})
	assert.True(t, sorted, "rendered order must follow store-assigned timestamps")
}

func TestPatchSubTextChangesOnlyThatField(t *testing.T) {
	col := NewMemoryCollection()
	s := startedStore(t, col)
	ctx := context.Background()

	id, err := s.Append(ctx, &chat.UserMessage{MainText: "hello", SubText: "Translating...", Voice: false})
	require.NoError(t, err)

	require.NoError(t, s.PatchSubText(ctx, id, "こんにちは"))

	var user *chat.UserMessage
	for _, m := range s.Messages() {
		if u, ok := m.(*chat.UserMessage); ok {
			user = u
		}
	}
	require.NotNil(t, user)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "hello", user.MainText)
	assert.Equal(t, "こんにちは", user.SubText)
}

func TestPatchDisplayLanguage(t *testing.T) {
	col := NewMemoryCollection()
	s := startedStore(t, col)
	ctx := context.Background()

	id, err := s.Append(ctx, &chat.BotMessage{DisplayLanguage: chat.LangEnglish, City: "Osaka"})
	require.NoError(t, err)
	require.NoError(t, s.PatchDisplayLanguage(ctx, id, chat.LangJapanese))

	for _, m := range s.Messages() {
		if bot, ok := m.(*chat.BotMessage); ok && !bot.Welcome {
			assert.Equal(t, chat.LangJapanese, bot.DisplayLanguage)
			assert.Equal(t, "Osaka", bot.City)
			return
		}
	}
	t.Fatal("patched bot message not found")
}

func TestPatchMissingDocumentFails(t *testing.T) {
	col := NewMemoryCollection()
	s := startedStore(t, col)
	assert.Error(t, s.PatchSubText(context.Background(), "no-such-id", "x"))
}

func TestClearRemovesEverything(t *testing.T) {
	col := NewMemoryCollection()
	s := startedStore(t, col)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.Append(ctx, &chat.UserMessage{MainText: "x"})
		require.NoError(t, err)
	}

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, col.Len())
	assert.Empty(t, s.Messages())
}

func TestClearPartialFailureLeavesPartialState(t *testing.T) {
	col := NewMemoryCollection()
	s := startedStore(t, col)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := s.Append(ctx, &chat.UserMessage{MainText: "x"})
		require.NoError(t, err)
	}
	require.Equal(t, 5, col.Len())

	col.FailDeleteAt = 3
	err := s.Clear(ctx)
	require.Error(t, err)

	// Two deletes landed before the failure; no rollback happens and the
	// feed snapshot reflects exactly the partial result.
	assert.Equal(t, 3, col.Len())
	assert.Len(t, s.Messages(), 3)
}

func TestSnapshotReplacesMalformedRecordsSafely(t *testing.T) {
	col := NewMemoryCollection()
	require.NoError(t, col.Add(context.Background(), "bad", map[string]any{
		"type":    "bot",
		"content": map[string]any{"en": "garbage"},
		"weather": 12,
	}))
	s := startedStore(t, col)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	bot := msgs[0].(*chat.BotMessage)
	assert.NotNil(t, bot.Content.EN.TimelineItems)
}

func TestSubscriptionErrorSurfaces(t *testing.T) {
	col := NewMemoryCollection()
	col.AddErr = assert.AnError
	s := New(col, chat.LangEnglish)
	var got error
	s.OnError(func(err error) { got = err })
	// The empty first snapshot triggers a seed write, which fails.
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Error(t, got)
}
