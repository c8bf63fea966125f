package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-transflow/internal/config"
)

// fakePage 按顺序返回预设内容，超出后重复最后一个
type fakePage struct {
	mu          sync.Mutex
	contents    []string
	contentErrs []error
	reads       int
	navErr      error
	navigated   string
	url         string
	opts        PageOptions
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigated = url
	return p.navErr
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := min(p.reads, len(p.contents)-1)
	p.reads++
	if i < len(p.contentErrs) && p.contentErrs[i] != nil {
		return "", p.contentErrs[i]
	}
	return p.contents[i], nil
}

func (p *fakePage) URL(ctx context.Context) (string, error) {
	return p.url, nil
}

type fakeSession struct {
	page    *fakePage
	pageErr error
	closed  bool
}

func (s *fakeSession) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	if s.pageErr != nil {
		return nil, s.pageErr
	}
	s.page.opts = opts
	return s.page, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeEngine struct {
	session   *fakeSession
	launchErr error
}

func (e *fakeEngine) Launch(ctx context.Context) (Session, error) {
	if e.launchErr != nil {
		return nil, e.launchErr
	}
	return e.session, nil
}

func (e *fakeEngine) Name() string { return "fake" }

func fastFetchConfig() config.FetchConfig {
	return config.FetchConfig{ChallengeAttempts: 6}
}

func newFakeFetcher(page *fakePage) (*Fetcher, *fakeSession) {
	session := &fakeSession{page: page}
	f := NewFetcher(&fakeEngine{session: session}, config.NewDefaultConfig().Browser, fastFetchConfig(), nil)
	return f, session
}

const challengeHTML = `<html><head><title>Just a moment...</title></head><body>Checking your browser</body></html>`

func TestFetch_CleanPage(t *testing.T) {
	page := &fakePage{
		contents: []string{"<html><body>first</body></html>", "<html><body>settled</body></html>"},
		url:      "https://example.com/final",
	}
	f, session := newFakeFetcher(page)

	capture, err := f.Fetch(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, "<html><body>settled</body></html>", capture.HTML)
	assert.Equal(t, "https://example.com/final", capture.FinalURL)
	assert.False(t, capture.Challenged)
	assert.Equal(t, 1, capture.Attempts)
	assert.Equal(t, 2, page.reads)
	assert.Equal(t, "https://example.com/", page.navigated)
	assert.True(t, session.closed)

	assert.Equal(t, "1", page.opts.Headers["Upgrade-Insecure-Requests"])
	assert.Equal(t, "America/New_York", page.opts.Timezone)
	assert.NotEmpty(t, page.opts.InitScript)
}

func TestFetch_ChallengeResolves(t *testing.T) {
	page := &fakePage{
		contents: []string{challengeHTML, challengeHTML, "<html><body>real</body></html>"},
		url:      "https://example.com/",
	}
	f, _ := newFakeFetcher(page)

	capture, err := f.Fetch(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.False(t, capture.Challenged)
	assert.Equal(t, 3, capture.Attempts)
	assert.Equal(t, "<html><body>real</body></html>", capture.HTML)
}

func TestFetch_ChallengeNeverResolves(t *testing.T) {
	page := &fakePage{contents: []string{challengeHTML}}
	f, session := newFakeFetcher(page)

	capture, err := f.Fetch(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.True(t, capture.Challenged)
	assert.Equal(t, 6, capture.Attempts)
	assert.Equal(t, 6, page.reads)
	assert.Equal(t, challengeHTML, capture.HTML)
	assert.Equal(t, "https://example.com/", capture.FinalURL)
	assert.True(t, session.closed)
}

func TestFetch_NavigationErrorIsTolerated(t *testing.T) {
	page := &fakePage{
		contents: []string{"<html><body>partial</body></html>"},
		navErr:   errors.New("navigation timeout"),
	}
	f, _ := newFakeFetcher(page)

	capture, err := f.Fetch(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "<html><body>partial</body></html>", capture.HTML)
}

func TestFetch_KeepsLastGoodContentOnReadError(t *testing.T) {
	boom := errors.New("target closed")
	page := &fakePage{
		contents:    []string{challengeHTML, "", "", "", "", ""},
		contentErrs: []error{nil, boom, boom, boom, boom, boom},
	}
	f, _ := newFakeFetcher(page)

	capture, err := f.Fetch(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, challengeHTML, capture.HTML)
	assert.True(t, capture.Challenged)
}

func TestFetch_LaunchFailure(t *testing.T) {
	f := NewFetcher(&fakeEngine{launchErr: errors.New("chrome not found")}, config.BrowserConfig{}, fastFetchConfig(), nil)

	_, err := f.Fetch(context.Background(), "https://example.com/")
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "launch", fe.Op)
	assert.Equal(t, "https://example.com/", fe.URL)
	assert.Contains(t, err.Error(), "chrome not found")
}

func TestFetch_PageFailureClosesSession(t *testing.T) {
	session := &fakeSession{pageErr: errors.New("no tab")}
	f := NewFetcher(&fakeEngine{session: session}, config.BrowserConfig{}, fastFetchConfig(), nil)

	_, err := f.Fetch(context.Background(), "https://example.com/")

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "new_page", fe.Op)
	assert.True(t, session.closed)
}

func TestFetch_CollectsCSS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("body{color:red}"))
	}))
	defer server.Close()

	page := &fakePage{
		contents: []string{`<html><head><style>p{margin:0}</style><link rel="stylesheet" href="/main.css"></head><body>x</body></html>`},
		url:      server.URL + "/article",
	}
	f, _ := newFakeFetcher(page)

	capture, err := f.Fetch(context.Background(), server.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, "p{margin:0}\n\n/* External CSS from: "+server.URL+"/main.css */\nbody{color:red}\n", capture.CSS)
}

func TestIsChallengePage(t *testing.T) {
	assert.True(t, IsChallengePage("<p>Please VERIFY you are human</p>"))
	assert.True(t, IsChallengePage("Cloudflare Ray ID: 1234"))
	assert.False(t, IsChallengePage("<p>Welcome</p>"))
}
