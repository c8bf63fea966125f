package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-transflow/internal/config"
)

func TestChromedpSetup_OnlyConfiguredOverrides(t *testing.T) {
	assert.Len(t, chromedpSetup(PageOptions{}), 1)

	// 视口只设置了一边时不覆盖
	assert.Len(t, chromedpSetup(PageOptions{ViewportWidth: 1280}), 1)

	full := PageOptions{
		UserAgent:      "Mozilla/5.0 test",
		AcceptLanguage: "en-US,en;q=0.9",
		ViewportWidth:  1280,
		ViewportHeight: 800,
		Locale:         "en-US",
		Timezone:       "Europe/Berlin",
		Headers:        map[string]string{"Accept-Language": "en-US"},
		InitScript:     "window.x = 1",
	}
	actions := chromedpSetup(full)
	require.Len(t, actions, 7)

	headers, ok := actions[len(actions)-1].(*network.SetExtraHTTPHeadersParams)
	require.True(t, ok)
	assert.Equal(t, "en-US", headers.Headers["Accept-Language"])
}

func TestChromedpSession_CloseWithoutPages(t *testing.T) {
	s, err := NewChromedpEngine(config.BrowserConfig{Headless: true}, nil).Launch(context.Background())
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestRodSession_RemoteCloseWithoutPages(t *testing.T) {
	s := &rodSession{}
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestRodEngine_RemoteResolveFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	remote := srv.URL
	srv.Close()

	_, err := NewRodEngine(config.BrowserConfig{RemoteURL: remote}, nil).Launch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rod: resolve remote url")
}
