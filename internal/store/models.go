package store

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
)

// Message roles as stored in chat transcripts.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is a single chat turn.
type Message struct {
	ID            string               `json:"id"`
	Role          string               `json:"role"`
	Text          string               `json:"text"`
	Timestamp     int64                `json:"timestamp"`
	Suggestions   []string             `json:"suggestions,omitempty"`
	Citations     []affiliate.Citation `json:"citations,omitempty"`
	SearchQueries []string             `json:"searchQueries,omitempty"`
	Edited        bool                 `json:"isEdited,omitempty"`
}

// ChatSession is a persisted conversation.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Timestamp int64     `json:"timestamp"`
}

// WishlistItem is a bookmarked product.
type WishlistItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	AddedAt int64  `json:"addedAt"`
}

// Review is a user-submitted product review.
type Review struct {
	ID          string `json:"id"`
	ProductName string `json:"productName"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	UserName    string `json:"userName"`
	Timestamp   int64  `json:"timestamp"`
}

// SavedQuery is a bookmarked search phrase.
type SavedQuery struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// DefaultChatTitle is used for sessions with no user message yet.
const DefaultChatTitle = "New Chat"

const titleMaxLen = 30

// DeriveTitle builds a chat title from the first user message,
// truncated with an ellipsis. Falls back to DefaultChatTitle.
func DeriveTitle(messages []Message) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		runes := []rune(m.Text)
		if len(runes) > titleMaxLen {
			return string(runes[:titleMaxLen]) + "..."
		}
		return m.Text
	}
	return DefaultChatTitle
}

const reviewSummaryLimit = 20

// ReviewSummary formats the most recent reviews as a context block for
// the model's system instruction. Returns "" when there are no reviews.
// Reviews are expected newest-first.
func ReviewSummary(reviews []Review) string {
	if len(reviews) == 0 {
		return ""
	}
	recent := reviews
	if len(recent) > reviewSummaryLimit {
		recent = recent[:reviewSummaryLimit]
	}

	var b strings.Builder
	b.WriteString("\n\n[USER REVIEWS DATABASE]\n")
	b.WriteString("The following are real reviews submitted by users of this app. Use this information to provide social proof or specific user feedback when relevant to the user's query.")
	for _, r := range recent {
		fmt.Fprintf(&b, "\n- Product: %q | Rating: %d/5 | User: %s | Comment: %q", r.ProductName, r.Rating, r.UserName, r.Comment)
	}
	return b.String()
}
