package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
	"git.home.luguber.info/inful/shopassist/internal/config"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
)

func testClient(baseURL string) *Client {
	return New(config.MarketplaceConfig{
		BaseURL:    baseURL,
		AccessKey:  "ak",
		SecretKey:  "sk",
		PartnerTag: "shopassist-20",
		Timeout:    2 * time.Second,
		MaxItems:   5,
	}, metrics.NoopRecorder{}, nil)
}

func TestSearch_PassesCredentialHeaders(t *testing.T) {
	var gotAccess, gotPartner string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search", r.URL.Path)
		gotAccess = r.Header.Get(HeaderAccessKey)
		gotPartner = r.Header.Get(HeaderPartnerTag)

		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "air fryer", body.Keyword)

		json.NewEncoder(w).Encode(searchResponse{Products: []Product{
			{ASIN: "B09XS7JWHH", Title: "Ninja Air Fryer", URL: "https://www.amazon.com/dp/B09XS7JWHH", Price: "$99.99"},
		}})
	}))
	defer srv.Close()

	products, err := testClient(srv.URL).Search(context.Background(), "air fryer", Credentials{PartnerTag: "override-20"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Ninja Air Fryer", products[0].Title)

	// Configured key used, per-request tag wins.
	require.Equal(t, "ak", gotAccess)
	require.Equal(t, "override-20", gotPartner)
}

func TestSearch_EmptyKeyword(t *testing.T) {
	_, err := testClient("http://127.0.0.1:1").Search(context.Background(), "   ", Credentials{})
	require.True(t, derrors.IsCategory(err, derrors.CategoryValidation))
}

func TestSearch_StatusMapping(t *testing.T) {
	tests := []struct {
		status    int
		category  derrors.ErrorCategory
		retryable bool
	}{
		{http.StatusForbidden, derrors.CategoryAuth, false},
		{http.StatusTooManyRequests, derrors.CategoryMarketplace, true},
		{http.StatusInternalServerError, derrors.CategoryMarketplace, true},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(searchResponse{Error: "upstream says no"})
		}))
		_, err := testClient(srv.URL).Search(context.Background(), "laptop", Credentials{})
		srv.Close()

		require.Error(t, err)
		require.True(t, derrors.IsCategory(err, tt.category), "status %d", tt.status)
		require.Equal(t, tt.retryable, derrors.IsRetryable(err), "status %d", tt.status)
	}
}

func TestSearch_TruncatesToMaxItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		products := make([]Product, 8)
		for i := range products {
			products[i] = Product{Title: "p", URL: "https://www.amazon.com/dp/B09XS7JWHH"}
		}
		json.NewEncoder(w).Encode(searchResponse{Products: products})
	}))
	defer srv.Close()

	products, err := testClient(srv.URL).Search(context.Background(), "usb hub", Credentials{})
	require.NoError(t, err)
	require.Len(t, products, 5)
}

func TestSearchGraceful_SwallowsFailure(t *testing.T) {
	// Nothing is listening here.
	products := testClient("http://127.0.0.1:1").SearchGraceful(context.Background(), "laptop")
	require.Empty(t, products)
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	require.True(t, testClient(srv.URL).Healthy(context.Background()))
	require.False(t, testClient("http://127.0.0.1:1").Healthy(context.Background()))
}

func TestFormatContext(t *testing.T) {
	norm := affiliate.New(affiliate.DefaultConfig("shopassist-20"))

	require.Empty(t, FormatContext(nil, norm))

	got := FormatContext([]Product{{
		Title:    "Sony WH-1000XM5",
		Price:    "$348.00",
		Image:    "https://m.media-amazon.com/images/I/61vJtKbAssL._AC_SL1500_.jpg",
		URL:      "https://www.amazon.com/dp/B09XS7JWHH",
		Features: []string{"ANC", "30h battery", "Multipoint", "Wearing detection"},
	}}, norm)

	require.Contains(t, got, "[SYSTEM: VERIFIED AMAZON API DATA FOUND]")
	require.Contains(t, got, "- Product: Sony WH-1000XM5")
	require.Contains(t, got, "tag=shopassist-20")
	// Only the first three features survive.
	require.Contains(t, got, "Features: ANC, 30h battery, Multipoint")
	require.NotContains(t, got, "Wearing detection")
}

func TestSearch_RetriesThrottledRequests(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(searchResponse{Products: []Product{
			{ASIN: "B09XS7JWHH", Title: "Ninja Air Fryer", URL: "https://www.amazon.com/dp/B09XS7JWHH", Price: "$99.99"},
		}})
	}))
	defer srv.Close()

	products, err := testClient(srv.URL).Search(context.Background(), "air fryer", Credentials{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, 3, hits)
}

func TestSearch_DoesNotRetryAuthFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "air fryer", Credentials{})
	require.True(t, derrors.IsCategory(err, derrors.CategoryAuth))
	require.Equal(t, 1, hits)
}
