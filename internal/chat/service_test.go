package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/llm"
	"git.home.luguber.info/inful/shopassist/internal/marketplace"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
	"git.home.luguber.info/inful/shopassist/internal/observability"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

// fakeStreamer replays scripted attempts. Each attempt is either a
// slice of deltas or an error.
type fakeStreamer struct {
	attempts []fakeAttempt
	calls    []bool // withSearch flag per call
	prompts  []string
}

type fakeAttempt struct {
	deltas []string
	err    error
}

func (f *fakeStreamer) Stream(ctx context.Context, systemPrompt string, session llm.Session, userText string, withSearch bool) (<-chan llm.Event, error) {
	f.calls = append(f.calls, withSearch)
	f.prompts = append(f.prompts, userText)
	attempt := f.attempts[len(f.calls)-1]
	if attempt.err != nil && attempt.deltas == nil {
		return nil, attempt.err
	}
	ch := make(chan llm.Event)
	go func() {
		defer close(ch)
		for _, d := range attempt.deltas {
			ch <- llm.Event{Text: d}
		}
		if attempt.err != nil {
			ch <- llm.Event{Err: attempt.err}
		}
	}()
	return ch, nil
}

type fakeSearcher struct {
	products []marketplace.Product
	keywords []string
}

func (f *fakeSearcher) SearchGraceful(ctx context.Context, keyword string) []marketplace.Product {
	f.keywords = append(f.keywords, keyword)
	return f.products
}

func testService(t *testing.T, streamer llm.Streamer, searcher ProductSearcher) (*Service, store.Store) {
	t.Helper()
	st, err := store.NewJSONStore(t.TempDir(), metrics.NoopRecorder{})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })

	norm := affiliate.New(affiliate.DefaultConfig("shopassist-20"))
	return New(streamer, searcher, st, norm, "test-model", metrics.NoopRecorder{}, nil), st
}

func collect(t *testing.T, deltas <-chan Delta) []Delta {
	t.Helper()
	var all []Delta
	for d := range deltas {
		all = append(all, d)
	}
	return all
}

func TestSend_StreamsAndPersists(t *testing.T) {
	streamer := &fakeStreamer{attempts: []fakeAttempt{
		{deltas: []string{"### Sony WH-1000XM5\n\n", "Great headphones."}},
	}}
	svc, st := testService(t, streamer, &fakeSearcher{})

	session, deltas, err := svc.Send(context.Background(), NewSession(), "best headphones")
	require.NoError(t, err)
	require.NotEmpty(t, session.ChatID)

	all := collect(t, deltas)
	require.Len(t, all, 3)
	require.Equal(t, "### Sony WH-1000XM5\n\n", all[0].Text)
	require.NoError(t, all[0].Err)

	final := all[len(all)-1]
	require.NotNil(t, final.Message)
	require.Equal(t, store.RoleModel, final.Message.Role)
	require.Equal(t, "### Sony WH-1000XM5\n\nGreat headphones.", final.Message.Text)
	// Heading plus paragraph.
	require.Equal(t, 2, final.Blocks)

	saved, err := st.Chats().Get(context.Background(), session.ChatID)
	require.NoError(t, err)
	// Welcome, user, model.
	require.Len(t, saved.Messages, 3)
	require.Equal(t, "best headphones", saved.Messages[1].Text)
}

func TestSend_EmptyTextRejected(t *testing.T) {
	svc, _ := testService(t, &fakeStreamer{}, &fakeSearcher{})
	_, _, err := svc.Send(context.Background(), NewSession(), "   ")
	require.True(t, derrors.IsCategory(err, derrors.CategoryValidation))
}

func TestSend_InjectsMarketplaceContext(t *testing.T) {
	streamer := &fakeStreamer{attempts: []fakeAttempt{{deltas: []string{"ok"}}}}
	searcher := &fakeSearcher{products: []marketplace.Product{{
		Title: "Ninja Air Fryer",
		Price: "$99.99",
		URL:   "https://www.amazon.com/dp/B09XS7JWHH",
	}}}
	svc, _ := testService(t, streamer, searcher)

	_, deltas, err := svc.Send(context.Background(), NewSession(), "best air fryer")
	require.NoError(t, err)
	all := collect(t, deltas)

	require.Equal(t, []string{"best air fryer"}, searcher.keywords)
	require.Contains(t, streamer.prompts[0], "[SYSTEM: VERIFIED AMAZON API DATA FOUND]")
	require.Contains(t, streamer.prompts[0], "Ninja Air Fryer")
	require.True(t, strings.HasPrefix(streamer.prompts[0], "best air fryer\n\n"))

	final := all[len(all)-1]
	require.Equal(t, []string{"best air fryer"}, final.Message.SearchQueries)
}

func TestSend_ShortTextSkipsSearch(t *testing.T) {
	streamer := &fakeStreamer{attempts: []fakeAttempt{{deltas: []string{"hi"}}}}
	searcher := &fakeSearcher{}
	svc, _ := testService(t, streamer, searcher)

	_, deltas, err := svc.Send(context.Background(), NewSession(), "hey")
	require.NoError(t, err)
	collect(t, deltas)
	require.Empty(t, searcher.keywords)
}

func TestSend_RetriesWithoutSearch(t *testing.T) {
	streamer := &fakeStreamer{attempts: []fakeAttempt{
		{deltas: []string{"partial"}, err: errors.New("tool unavailable")},
		{deltas: []string{"full answer"}},
	}}
	svc, _ := testService(t, streamer, &fakeSearcher{})

	_, deltas, err := svc.Send(context.Background(), NewSession(), "best monitors")
	require.NoError(t, err)
	all := collect(t, deltas)

	require.Equal(t, []bool{true, false}, streamer.calls)

	// A replace event separates the failed attempt from the retry.
	var sawReplace bool
	for _, d := range all[:len(all)-1] {
		if d.Replace {
			sawReplace = true
		}
	}
	require.True(t, sawReplace)

	final := all[len(all)-1]
	require.NoError(t, final.Err)
	require.Equal(t, "full answer", final.Message.Text)
}

func TestSend_BothAttemptsFailProducesFriendlyError(t *testing.T) {
	cause := derrors.LLMAuthError(errors.New("401 unauthorized"))
	streamer := &fakeStreamer{attempts: []fakeAttempt{{err: cause}, {err: cause}}}
	svc, st := testService(t, streamer, &fakeSearcher{})

	session, deltas, err := svc.Send(context.Background(), NewSession(), "best keyboards")
	require.NoError(t, err)
	all := collect(t, deltas)

	final := all[len(all)-1]
	require.Error(t, final.Err)
	require.True(t, final.Replace)
	require.Contains(t, final.Text, "⚠️ **Connection Error**")
	require.Contains(t, final.Text, "API Key Error")

	// The error message is persisted as the model turn.
	saved, err := st.Chats().Get(context.Background(), session.ChatID)
	require.NoError(t, err)
	last := saved.Messages[len(saved.Messages)-1]
	require.Equal(t, store.RoleModel, last.Role)
	require.Contains(t, last.Text, "API Key Error")
}

func TestSend_SessionHistoryForwarded(t *testing.T) {
	streamer := &fakeStreamer{attempts: []fakeAttempt{{deltas: []string{"ok"}}}}
	svc, _ := testService(t, streamer, &fakeSearcher{})

	session := NewSession()
	session.Messages = append(session.Messages,
		store.Message{ID: "u1", Role: store.RoleUser, Text: "earlier question"},
		store.Message{ID: "m1", Role: store.RoleModel, Text: "earlier answer"},
	)

	_, deltas, err := svc.Send(context.Background(), session, "follow-up question")
	require.NoError(t, err)
	collect(t, deltas)
	// History is replayed through the session, not the prompt text.
	require.Equal(t, "follow-up question", streamer.prompts[0])
}

func TestSourceCitations(t *testing.T) {
	text := "See [a review](https://www.rtings.com/headphones) and https://example.com/post. " +
		"Buy at [Amazon](https://www.amazon.com/dp/B09XS7JWHH)."
	got := sourceCitations(text)
	require.Len(t, got, 2)
	require.Equal(t, "https://www.rtings.com/headphones", got[0].URI)
	require.Equal(t, "a review", got[0].Title)
	require.Equal(t, "rtings.com", got[0].Hostname)
}

func TestNewSession_SeedsWelcome(t *testing.T) {
	s := NewSession()
	require.NotEmpty(t, s.ChatID)
	require.Len(t, s.Messages, 1)
	require.Equal(t, store.RoleModel, s.Messages[0].Role)
	require.Equal(t, DefaultSuggestions, s.Messages[0].Suggestions)
}

// ctxCapturingStreamer records the context the model sees.
type ctxCapturingStreamer struct {
	fakeStreamer
	seen context.Context
}

func (c *ctxCapturingStreamer) Stream(ctx context.Context, systemPrompt string, session llm.Session, userText string, withSearch bool) (<-chan llm.Event, error) {
	c.seen = ctx
	return c.fakeStreamer.Stream(ctx, systemPrompt, session, userText, withSearch)
}

func TestSendThreadsObservabilityContext(t *testing.T) {
	streamer := &ctxCapturingStreamer{fakeStreamer: fakeStreamer{
		attempts: []fakeAttempt{{deltas: []string{"ok"}}},
	}}
	svc, _ := testService(t, streamer, &fakeSearcher{})

	session, deltas, err := svc.Send(context.Background(), Session{}, "hi")
	require.NoError(t, err)
	collect(t, deltas)

	require.NotNil(t, streamer.seen)
	require.Equal(t, session.ChatID, observability.GetContext(streamer.seen).ChatID)
	_, ok := observability.SpanFromContext(streamer.seen)
	require.True(t, ok)
}
