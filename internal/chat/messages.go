package chat

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

const welcomeText = "# 👋 Hi there! I'm your AI Shopping Assistant.\n\n" +
	"I find products with the **highest sales on Amazon last month** 📈 that also have **high reviews and ratings** ⭐.\n\n" +
	"I check for \"bought in past month\" data to make sure you get what's actually trending right now, along with honest pros & cons.\n\n" +
	"What are you looking for today?"

// DefaultSuggestions are the starter chips shown with the welcome
// message.
var DefaultSuggestions = []string{
	"🔥 Best selling air fryers",
	"💻 Top laptops with high sales",
	"🎧 Popular headphones 5k+ sold",
	"🎁 Trending gifts for men",
}

// WelcomeMessage is the first model turn of every new conversation.
func WelcomeMessage() store.Message {
	return store.Message{
		ID:          "welcome",
		Role:        store.RoleModel,
		Text:        welcomeText,
		Timestamp:   time.Now().UnixMilli(),
		Suggestions: DefaultSuggestions,
	}
}

// NewSession starts a fresh conversation seeded with the welcome
// message.
func NewSession() Session {
	return Session{
		ChatID:   uuid.NewString(),
		Messages: []store.Message{WelcomeMessage()},
	}
}

// friendlyError maps terminal failures to user-facing markdown,
// keeping the raw message available for diagnosis.
func friendlyError(err error) string {
	switch {
	case derrors.IsCategory(err, derrors.CategoryAuth):
		return "**API Key Error**: The provided API key is invalid or restricted.\n\n" +
			"**Fix:** Check the configured OpenRouter API key and make sure your account has credit remaining."
	case derrors.IsCategory(err, derrors.CategoryNetwork), derrors.IsRetryable(err):
		return "**Connection Blocked**: The server could not reach the AI provider.\n\n" +
			"**Possible Causes:**\n" +
			"1. **Network Firewall**: Your network might be blocking `openrouter.ai`.\n" +
			"2. **Provider Outage**: The model provider may be temporarily unavailable. Try again in a moment."
	default:
		return fmt.Sprintf("I encountered an issue connecting to the AI service.\n\n`%s`", err.Error())
	}
}

var (
	citationLink = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)
	citationBare = regexp.MustCompile(`https?://[^\s<>)\]]+`)
)

// sourceCitations collects the non-retailer links mentioned in the
// reply as grounding sources.
func sourceCitations(text string) []affiliate.Citation {
	var citations []affiliate.Citation
	stripped := citationLink.ReplaceAllStringFunc(text, func(match string) string {
		m := citationLink.FindStringSubmatch(match)
		citations = append(citations, affiliate.Citation{URI: m[2], Title: m[1]})
		return ""
	})
	for _, u := range citationBare.FindAllString(stripped, -1) {
		citations = append(citations, affiliate.Citation{URI: u})
	}
	return affiliate.FilterSources(citations)
}
