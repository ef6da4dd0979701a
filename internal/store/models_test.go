package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		want     string
	}{
		{
			name: "no messages",
			want: DefaultChatTitle,
		},
		{
			name:     "model message only",
			messages: []Message{{Role: RoleModel, Text: "Welcome!"}},
			want:     DefaultChatTitle,
		},
		{
			name:     "short user message",
			messages: []Message{{Role: RoleUser, Text: "best laptop"}},
			want:     "best laptop",
		},
		{
			name: "long user message truncated",
			messages: []Message{{
				Role: RoleUser,
				Text: "I am looking for a mechanical keyboard under one hundred dollars",
			}},
			want: "I am looking for a mechanical ...",
		},
		{
			name: "first user message wins",
			messages: []Message{
				{Role: RoleModel, Text: "Hi there"},
				{Role: RoleUser, Text: "coffee grinder"},
				{Role: RoleUser, Text: "espresso machine"},
			},
			want: "coffee grinder",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DeriveTitle(tt.messages))
		})
	}
}

func TestReviewSummary_Empty(t *testing.T) {
	require.Empty(t, ReviewSummary(nil))
}

func TestReviewSummary_Format(t *testing.T) {
	got := ReviewSummary([]Review{
		{ProductName: "Widget", Rating: 4, Comment: "Solid", UserName: "alex"},
	})
	require.True(t, strings.HasPrefix(got, "\n\n[USER REVIEWS DATABASE]\n"))
	require.Contains(t, got, `- Product: "Widget" | Rating: 4/5 | User: alex | Comment: "Solid"`)
}

func TestReviewSummary_LimitsToRecent(t *testing.T) {
	reviews := make([]Review, 25)
	for i := range reviews {
		reviews[i] = Review{ProductName: fmt.Sprintf("p%d", i), Rating: 3, UserName: "u"}
	}
	got := ReviewSummary(reviews)
	require.Contains(t, got, `"p19"`)
	require.NotContains(t, got, `"p20"`)
}
