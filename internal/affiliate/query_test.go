package affiliate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanQuery_StripsIntentWordsAndSites(t *testing.T) {
	require.Equal(t, "Sony WH-1000XM5",
		CleanQuery("Best Sony WH-1000XM5 review 2024 reddit"))
}

func TestCleanQuery_StripsYearsAndAdjectives(t *testing.T) {
	require.Equal(t, "budget headphones",
		CleanQuery("best budget headphones 2025"))
}

func TestCleanQuery_StripsURLs(t *testing.T) {
	require.Equal(t, "Anker 737",
		CleanQuery("Anker 737 https://www.rtings.com/chargers"))
}

func TestCleanQuery_MultiWordSiteName(t *testing.T) {
	require.Equal(t, "LG C4",
		CleanQuery("LG C4 vs best buy consumer reports"))
}

func TestCleanQuery_MayBeEmpty(t *testing.T) {
	require.Empty(t, CleanQuery("best cheap deal 2024"))
}

func TestShoppingTags_HeadersTakePriority(t *testing.T) {
	text := "### Sony WH-1000XM5\n\nGreat.\n"
	tags := ShoppingTags(text, []string{
		"Sony WH-1000XM5 headphones review", // covered by the header
		"best laptops 2024",                 // cleans to a single word
		"Bose QuietComfort Ultra price",
	})
	require.Equal(t, []string{"Sony WH-1000XM5", "Bose QuietComfort Ultra"}, tags)
}

func TestShoppingTags_QueriesOnlyWhenNoHeaders(t *testing.T) {
	tags := ShoppingTags("no headings here", []string{
		"best headphones 2024",
		"Anker 737 review",
	})
	require.Equal(t, []string{"headphones", "Anker 737"}, tags)
}

func TestShoppingTags_CaseInsensitiveDedup(t *testing.T) {
	text := "### Sony WH-1000XM5\n### SONY WH-1000XM5\n"
	require.Equal(t, []string{"Sony WH-1000XM5"}, ShoppingTags(text, nil))
}

func TestShoppingTags_ShortQueriesDropped(t *testing.T) {
	require.Empty(t, ShoppingTags("plain text", []string{"tv", ""}))
}
