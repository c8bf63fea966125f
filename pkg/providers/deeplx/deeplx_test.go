package deeplx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-transflow/pkg/providers"
)

func TestProvider_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var req TranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Guten Morgen", req.Text)
		assert.Equal(t, "auto", req.SourceLang)
		assert.Equal(t, "EN-GB", req.TargetLang)

		_ = json.NewEncoder(w).Encode(TranslateResponse{Code: 200, Data: "Good morning", SourceLang: "DE"})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.APIEndpoint = server.URL
	config.AccessToken = "token-1"

	resp, err := New(config).Translate(context.Background(), &providers.ProviderRequest{
		Text:           "Guten Morgen",
		TargetLanguage: "en-gb",
	})
	require.NoError(t, err)
	assert.Equal(t, "Good morning", resp.Text)
	assert.Equal(t, "DE", resp.SourceLang)
}

func TestProvider_TranslateBusinessError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TranslateResponse{Code: 400, Message: "invalid target"})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.APIEndpoint = server.URL
	config.MaxRetries = 0

	_, err := New(config).Translate(context.Background(), &providers.ProviderRequest{
		Text:           "Hello",
		TargetLanguage: "zz",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target")
}
