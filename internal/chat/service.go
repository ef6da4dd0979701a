// Package chat orchestrates one conversation turn: marketplace
// context lookup, model streaming with a no-search retry, per-delta
// re-rendering, and persistence.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/llm"
	"git.home.luguber.info/inful/shopassist/internal/logfields"
	"git.home.luguber.info/inful/shopassist/internal/marketplace"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
	"git.home.luguber.info/inful/shopassist/internal/observability"
	"git.home.luguber.info/inful/shopassist/internal/render"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

// Session is an explicit conversation value. Resetting a chat is
// dropping the value; no process-wide current session exists.
type Session struct {
	ChatID   string
	Messages []store.Message
}

// Delta is one streamed update. Replace means Text supersedes the
// accumulated buffer instead of appending (used when the no-search
// retry restarts the answer, and for terminal error messages).
// Message is set on the final event with the persisted model turn.
type Delta struct {
	Text    string
	Blocks  int
	Replace bool
	Err     error
	Message *store.Message
}

// ProductSearcher is the marketplace surface the service needs.
type ProductSearcher interface {
	SearchGraceful(ctx context.Context, keyword string) []marketplace.Product
}

// Service runs conversation turns.
type Service struct {
	model     llm.Streamer
	searcher  ProductSearcher
	store     store.Store
	norm      *affiliate.Normalizer
	renderer  *render.Renderer
	modelName string
	rec       metrics.Recorder
	logger    *slog.Logger
	tracer    *observability.TracerProvider
	active    atomic.Int64
}

// New builds the chat service.
func New(model llm.Streamer, searcher ProductSearcher, st store.Store, norm *affiliate.Normalizer, modelName string, rec metrics.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		model:     model,
		searcher:  searcher,
		store:     st,
		norm:      norm,
		renderer:  render.NewRenderer(norm),
		modelName: modelName,
		rec:       rec,
		logger:    logger,
		tracer:    observability.NewTracerProvider(),
	}
}

// minSearchLength mirrors the client rule: very short inputs are
// greetings, not product queries.
const minSearchLength = 3

// Send appends the user turn, persists it, and streams the model
// reply. The returned session already contains the user message; the
// completed model message arrives on the final Delta.
func (s *Service) Send(ctx context.Context, session Session, userText string) (Session, <-chan Delta, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return session, nil, derrors.ValidationError("message text is required")
	}
	if session.ChatID == "" {
		session.ChatID = uuid.NewString()
	}
	ctx = observability.WithChatID(ctx, session.ChatID)

	userMsg := store.Message{
		ID:        uuid.NewString(),
		Role:      store.RoleUser,
		Text:      userText,
		Timestamp: time.Now().UnixMilli(),
	}
	session.Messages = append(session.Messages, userMsg)
	saveCtx, saveSpan := s.tracer.StartStoreSpan(ctx, "save", "chats")
	_, err := s.store.Chats().Save(saveCtx, session.ChatID, session.Messages, "")
	observability.EndSpan(saveSpan, err)
	if err != nil {
		return session, nil, err
	}

	var hiddenContext string
	var queries []string
	if len(userText) > minSearchLength {
		products := s.searcher.SearchGraceful(ctx, userText)
		hiddenContext = marketplace.FormatContext(products, s.norm)
		if hiddenContext != "" {
			queries = []string{userText}
		}
	}

	summary, err := s.store.Reviews().Summary(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "review summary unavailable", logfields.Error(err))
	}
	systemPrompt := llm.WithReviews(llm.SystemInstruction(s.norm.Tag()), summary)

	messageToSend := userText
	if hiddenContext != "" {
		messageToSend = userText + "\n\n" + hiddenContext
	}

	out := make(chan Delta)
	go s.run(ctx, session, systemPrompt, messageToSend, queries, out)
	return session, out, nil
}

func (s *Service) run(ctx context.Context, session Session, systemPrompt, messageToSend string, queries []string, out chan<- Delta) {
	defer close(out)
	ctx, turnSpan := s.tracer.StartChatSpan(ctx, session.ChatID)
	defer turnSpan.End()
	if s.rec != nil {
		s.rec.SetActiveStreams(int(s.active.Add(1)))
		defer func() { s.rec.SetActiveStreams(int(s.active.Add(-1))) }()
	}
	start := time.Now()

	// History excludes the user turn just appended; it is sent as the
	// new message.
	history := make([]llm.Message, 0, len(session.Messages)-1)
	for _, m := range session.Messages[:len(session.Messages)-1] {
		history = append(history, llm.Message{Role: m.Role, Text: m.Text})
	}
	llmSession := llm.Session{ID: session.ChatID, History: history}

	result := metrics.ResultSuccess
	fullText, err := s.streamOnce(ctx, systemPrompt, llmSession, messageToSend, true, out)
	if err != nil {
		s.logger.WarnContext(ctx, "search-enabled attempt failed, retrying without search", logfields.Error(err))
		// Restart the answer from scratch for the retry.
		if !send(ctx, out, Delta{Replace: true}) {
			return
		}
		result = metrics.ResultDegraded
		fullText, err = s.streamOnce(ctx, systemPrompt, llmSession, messageToSend, false, out)
	}

	if err != nil {
		s.finishWithError(ctx, session, err, out)
		return
	}

	modelMsg := store.Message{
		ID:            uuid.NewString(),
		Role:          store.RoleModel,
		Text:          fullText,
		Timestamp:     time.Now().UnixMilli(),
		Citations:     sourceCitations(fullText),
		SearchQueries: queries,
	}
	session.Messages = append(session.Messages, modelMsg)
	saveCtx, saveSpan := s.tracer.StartStoreSpan(ctx, "save", "chats")
	_, saveErr := s.store.Chats().Save(saveCtx, session.ChatID, session.Messages, "")
	observability.EndSpan(saveSpan, saveErr)
	if saveErr != nil {
		s.logger.ErrorContext(ctx, "failed to persist chat", logfields.Error(saveErr))
	}

	if s.rec != nil {
		s.rec.ObserveChatDuration(s.modelName, time.Since(start))
		s.rec.IncChatResult(s.modelName, result)
	}
	send(ctx, out, Delta{Blocks: s.blockCount(fullText), Message: &modelMsg})
}

// streamOnce runs a single model attempt, re-rendering the
// accumulated buffer on every delta.
func (s *Service) streamOnce(ctx context.Context, systemPrompt string, llmSession llm.Session, messageToSend string, withSearch bool, out chan<- Delta) (text string, err error) {
	ctx, span := s.tracer.StartStageSpan(ctx, "stream", llmSession.ID)
	span.SetAttribute("search", withSearch)
	defer func() { observability.EndSpan(span, err) }()

	events, err := s.model.Stream(ctx, systemPrompt, llmSession, messageToSend, withSearch)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for ev := range events {
		if ev.Err != nil {
			return buf.String(), ev.Err
		}
		buf.WriteString(ev.Text)
		if !send(ctx, out, Delta{Text: ev.Text, Blocks: s.blockCount(buf.String())}) {
			return buf.String(), ctx.Err()
		}
	}
	return buf.String(), nil
}

func (s *Service) finishWithError(ctx context.Context, session Session, cause error, out chan<- Delta) {
	result := metrics.ResultError
	if ctx.Err() != nil {
		result = metrics.ResultCanceled
	}
	if s.rec != nil {
		s.rec.IncChatResult(s.modelName, result)
	}
	if span, ok := observability.SpanFromContext(ctx); ok {
		span.RecordError(cause)
	}
	s.logger.ErrorContext(ctx, "chat turn failed", logfields.Error(cause))

	text := "⚠️ **Connection Error**\n\n" + friendlyError(cause)
	modelMsg := store.Message{
		ID:        uuid.NewString(),
		Role:      store.RoleModel,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	session.Messages = append(session.Messages, modelMsg)
	if _, err := s.store.Chats().Save(ctx, session.ChatID, session.Messages, ""); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist chat", logfields.Error(err))
	}
	send(ctx, out, Delta{Text: text, Replace: true, Blocks: s.blockCount(text), Err: cause, Message: &modelMsg})
}

func (s *Service) blockCount(text string) int {
	return len(s.renderer.RenderTree(text, false))
}

func send(ctx context.Context, out chan<- Delta, d Delta) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

// Load rebuilds a session from the store.
func (s *Service) Load(ctx context.Context, chatID string) (Session, error) {
	saved, err := s.store.Chats().Get(ctx, chatID)
	if err != nil {
		return Session{}, err
	}
	return Session{ChatID: saved.ID, Messages: saved.Messages}, nil
}
