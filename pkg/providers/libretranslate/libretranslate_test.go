package libretranslate

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
		assert.Equal(t, "/translate", r.URL.Path)

		var req TranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hola amigo", req.Q)
		assert.Equal(t, "es", req.Source)
		assert.Equal(t, "en", req.Target)
		assert.Equal(t, "secret", req.APIKey)

		_, _ = w.Write([]byte(`{"translatedText":"Hello friend"}`))
	}))
	defer server.Close()

	config := DefaultConfig()
	config.APIEndpoint = server.URL + "/"
	config.APIKey = "secret"

	resp, err := New(config).Translate(context.Background(), &providers.ProviderRequest{
		Text:           "Hola amigo",
		SourceLanguage: "ES",
		TargetLanguage: "en-US",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello friend", resp.Text)
}

func TestProvider_AutoDetectSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req TranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "auto", req.Source)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"translatedText":   "Bonjour",
			"detectedLanguage": map[string]interface{}{"confidence": 90.0, "language": "en"},
		})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.APIEndpoint = server.URL

	resp, err := New(config).Translate(context.Background(), &providers.ProviderRequest{
		Text:           "Hello",
		TargetLanguage: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", resp.Text)
	assert.Equal(t, "en", resp.SourceLang)
}
