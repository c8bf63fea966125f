package transflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-transflow/internal/config"
	"github.com/nerdneilsfield/go-transflow/internal/document"
	"github.com/nerdneilsfield/go-transflow/internal/fetcher"
	"github.com/nerdneilsfield/go-transflow/internal/translator"
	"github.com/nerdneilsfield/go-transflow/pkg/translation"
)

type fakeFetcher struct {
	capture *fetcher.PageCapture
	err     error
	urls    []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*fetcher.PageCapture, error) {
	f.urls = append(f.urls, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return f.capture, nil
}

// dictTranslator 按字典翻译并记录请求
type dictTranslator struct {
	mu    sync.Mutex
	dict  map[string]string
	units []translation.Unit
}

func (d *dictTranslator) Translate(ctx context.Context, u translation.Unit) (string, error) {
	d.mu.Lock()
	d.units = append(d.units, u)
	d.mu.Unlock()
	if out, ok := d.dict[u.Text]; ok {
		return out, nil
	}
	return "", errors.New("no translation for " + u.Text)
}

type stubLookup struct {
	id    string
	err   error
	calls int
}

func (s *stubLookup) GlossaryID(ctx context.Context, sourceLang, targetLang string) (string, error) {
	s.calls++
	return s.id, s.err
}

type panickingTranslator struct{}

func (panickingTranslator) TranslateGroups(context.Context, []*document.ContextGroup, translator.Options) translator.Stats {
	panic("boom")
}

func newTestService(f PageFetcher, dict map[string]string, opts ...Option) (*Service, *dictTranslator) {
	units := &dictTranslator{dict: dict}
	gt := translator.NewGroupTranslator(units, translator.Config{Concurrency: 1}, nil)
	return New(f, gt, opts...), units
}

const helloPage = `<html><head><script>var x = "Hello";</script></head><body><p>Hello <b>world</b></p></body></html>`

func TestTranslateHTMLDirectly_NoTranslation(t *testing.T) {
	svc, units := newTestService(nil, nil)

	for _, target := range []string{"NONE", "none", ""} {
		result := svc.TranslateHTMLDirectly(context.Background(), HTMLRequest{HTML: helloPage, SourceLang: "EN", TargetLang: target})

		require.True(t, result.Success, result.ErrorMessage)
		assert.Nil(t, result.TranslatedHTML)
		assert.Nil(t, result.TranslatedText)
		assert.False(t, result.Translated())
		assert.Equal(t, helloPage, result.OriginalHTML)
		assert.Equal(t, "Hello world", result.OriginalText)
		assert.Equal(t, DirectHTMLURL, result.OriginalURL)
	}
	assert.Empty(t, units.units)
}

func TestTranslateHTMLDirectly_PreservesInlineMarkup(t *testing.T) {
	svc, units := newTestService(nil, map[string]string{"Hello world": "Bonjour monde"})

	result := svc.TranslateHTMLDirectly(context.Background(), HTMLRequest{HTML: helloPage, SourceLang: "EN", TargetLang: "FR"})

	require.True(t, result.Success, result.ErrorMessage)
	require.NotNil(t, result.TranslatedHTML)
	assert.Contains(t, *result.TranslatedHTML, "<p>Bonjo<b>ur monde</b></p>")
	assert.NotContains(t, *result.TranslatedHTML, "<script>")
	require.NotNil(t, result.TranslatedText)
	assert.Contains(t, *result.TranslatedText, "monde")
	assert.Equal(t, helloPage, result.OriginalHTML)
	assert.Equal(t, 2, result.Stats.NodesTranslated)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, units.units, 1)
	assert.Equal(t, "EN", units.units[0].SourceLang)
	assert.Equal(t, "FR", units.units[0].TargetLang)
}

func TestTranslatePage(t *testing.T) {
	f := &fakeFetcher{capture: &fetcher.PageCapture{
		HTML:       `<html><body><h1>Title</h1><p>Body</p></body></html>`,
		CSS:        "p{margin:0}\n",
		FinalURL:   "https://example.com/final",
		Challenged: true,
	}}
	lookup := &stubLookup{id: "g-1"}
	svc, units := newTestService(f, map[string]string{"Title": "제목", "Body": "본문"}, WithGlossary(lookup))

	result := svc.TranslatePage(context.Background(), PageRequest{URL: "https://example.com/", SourceLang: "EN", TargetLang: "KO"})

	require.True(t, result.Success, result.ErrorMessage)
	assert.Equal(t, []string{"https://example.com/"}, f.urls)
	assert.Equal(t, "https://example.com/", result.OriginalURL)
	assert.Equal(t, "https://example.com/final", result.FinalURL)
	assert.Equal(t, "p{margin:0}\n", result.CSS)
	assert.True(t, result.Challenged)
	assert.Equal(t, "g-1", result.GlossaryID)
	assert.Equal(t, "Title Body", result.OriginalText)
	assert.Equal(t, "제목 본문", *result.TranslatedText)
	assert.Contains(t, *result.TranslatedHTML, "<h1>제목</h1>")

	require.Len(t, units.units, 2)
	for _, u := range units.units {
		assert.Equal(t, "g-1", u.GlossaryID)
	}
}

func TestTranslatePage_SuppliedGlossarySkipsLookup(t *testing.T) {
	f := &fakeFetcher{capture: &fetcher.PageCapture{HTML: `<p>Body</p>`}}
	lookup := &stubLookup{id: "from-lookup"}
	svc, units := newTestService(f, map[string]string{"Body": "Corps"}, WithGlossary(lookup))

	result := svc.TranslatePage(context.Background(), PageRequest{URL: "u", SourceLang: "EN", TargetLang: "FR", GlossaryID: "given"})

	require.True(t, result.Success)
	assert.Equal(t, 0, lookup.calls)
	assert.Equal(t, "given", units.units[0].GlossaryID)
}

func TestTranslatePage_GlossaryFailureContinues(t *testing.T) {
	f := &fakeFetcher{capture: &fetcher.PageCapture{HTML: `<p>Body</p>`}}
	lookup := &stubLookup{err: errors.New("deepl down")}
	svc, _ := newTestService(f, map[string]string{"Body": "Corps"}, WithGlossary(lookup))

	result := svc.TranslatePage(context.Background(), PageRequest{URL: "u", SourceLang: "EN", TargetLang: "FR"})

	require.True(t, result.Success)
	assert.Empty(t, result.GlossaryID)
	assert.Contains(t, *result.TranslatedHTML, "Corps")
}

func TestTranslatePage_FetchFailure(t *testing.T) {
	f := &fakeFetcher{err: &fetcher.FetchError{URL: "https://example.com/", Op: "launch", Err: errors.New("chrome not found")}}
	svc, _ := newTestService(f, nil)

	result := svc.TranslatePage(context.Background(), PageRequest{URL: "https://example.com/", TargetLang: "KO"})

	assert.False(t, result.Success)
	assert.Nil(t, result.TranslatedHTML)
	assert.Contains(t, result.ErrorMessage, "FETCH_ERROR")
	assert.Contains(t, result.ErrorMessage, "chrome not found")
}

func TestTranslatePage_NoFetcher(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	result := svc.TranslatePage(context.Background(), PageRequest{URL: "u", TargetLang: "KO"})
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "CONFIG_ERROR")
}

func TestTranslateHTMLDirectly_RecoversPanic(t *testing.T) {
	svc := New(nil, panickingTranslator{})

	result := svc.TranslateHTMLDirectly(context.Background(), HTMLRequest{HTML: `<p>x y</p>`, TargetLang: "DE"})

	assert.False(t, result.Success)
	assert.Nil(t, result.TranslatedHTML)
	assert.Contains(t, result.ErrorMessage, "boom")
}

// panickingUnits 提供商在工作协程中 panic
type panickingUnits struct{}

func (panickingUnits) Translate(context.Context, translation.Unit) (string, error) {
	panic("assignment to entry in nil map")
}

func TestTranslateHTMLDirectly_ProviderPanicInWorker(t *testing.T) {
	gt := translator.NewGroupTranslator(panickingUnits{}, translator.Config{Concurrency: 2}, nil)
	svc := New(nil, gt)

	result := svc.TranslateHTMLDirectly(context.Background(), HTMLRequest{
		HTML:       `<p>Hello <b>world</b></p><p>Bye</p>`,
		TargetLang: "DE",
	})

	require.True(t, result.Success)
	require.NotNil(t, result.TranslatedHTML)
	assert.Contains(t, *result.TranslatedHTML, "<b>world</b>")
	assert.Equal(t, 3, result.Stats.NodesFailed)
	assert.Equal(t, 0, result.Stats.GroupsTranslated)
}

func TestTranslateHTMLDirectly_ReportsProgress(t *testing.T) {
	svc, _ := newTestService(nil, map[string]string{"One": "Un", "Two": "Deux"})

	var done []int
	result := svc.TranslateHTMLDirectly(context.Background(), HTMLRequest{
		HTML:       `<p>One</p><p>Two</p>`,
		TargetLang: "FR",
		OnProgress: func(d, total int) {
			assert.Equal(t, 2, total)
			done = append(done, d)
		},
	})

	require.True(t, result.Success)
	assert.Equal(t, []int{1, 2}, done)
}

func TestFetchText(t *testing.T) {
	f := &fakeFetcher{capture: &fetcher.PageCapture{HTML: `<html><body><style>p{}</style><p>Some   text</p> <div>more</div></body></html>`}}
	svc, units := newTestService(f, nil)

	text, err := svc.FetchText(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "Some text more", text)
	assert.Empty(t, units.units)

	f.err = errors.New("offline")
	_, err = svc.FetchText(context.Background(), "https://example.com/")
	assert.Error(t, err)
}

func TestResult_JSON(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	result := svc.TranslateHTMLDirectly(context.Background(), HTMLRequest{HTML: `<p>x</p>`, TargetLang: config.NoTranslationSentinel})

	data, err := json.Marshal(result)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"translated_html":null`)
	assert.Contains(t, out, `"original_url":"direct-html"`)
	assert.True(t, strings.Contains(out, `"success":true`))
}

func TestNewFromConfig_TalliesProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := config.NewDefaultConfig()
	cfg.Provider.Type = "libretranslate"
	cfg.Provider.BaseURL = srv.URL
	cfg.Provider.MaxRetries = 0
	cfg.Translate.Concurrency = 1
	cfg.Translate.GroupPause = 0

	rt, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)

	result := rt.Service.TranslateHTMLDirectly(context.Background(), HTMLRequest{HTML: `<p>Hello there</p>`, SourceLang: "EN", TargetLang: "DE"})
	require.True(t, result.Success, result.ErrorMessage)
	assert.Equal(t, 1, result.Stats.NodesFailed)

	// 整组一次加逐节点回退一次
	assert.Equal(t, map[string]int{translation.ErrCodeProvider: 2}, rt.Errors.Counts())
	assert.Equal(t, 2, rt.Errors.Total())

	all := rt.Stats.GetAllStats()
	require.Len(t, all, 1)
	assert.EqualValues(t, 2, all[0].FailedRequests)
}

func TestErrorTally(t *testing.T) {
	tally := NewErrorTally()
	tally.Record(translation.Unit{}, translation.NewTranslationError(translation.ErrCodeTimeout, "slow", nil))
	tally.Record(translation.Unit{}, errors.New("plain"))
	tally.Record(translation.Unit{}, translation.NewTranslationError(translation.ErrCodeTimeout, "slow", nil))

	assert.Equal(t, map[string]int{translation.ErrCodeTimeout: 2, translation.ErrCodeUnknown: 1}, tally.Counts())
	assert.Equal(t, 3, tally.Total())
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Provider.Type = "raw"

	rt, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, rt.Service)
	assert.NotNil(t, rt.Stats)

	result := rt.Service.TranslateHTMLDirectly(context.Background(), HTMLRequest{HTML: `<p>Hello there</p>`, SourceLang: "EN", TargetLang: "DE"})
	require.True(t, result.Success, result.ErrorMessage)
	assert.Contains(t, *result.TranslatedHTML, "Hello there")
	assert.Zero(t, rt.Errors.Total())
	assert.Equal(t, "raw", rt.Provider.GetName())

	outs, err := rt.Translation.TranslateBatch(context.Background(), translation.BatchUnit{TargetLang: "DE", Texts: []string{"one", "two"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, outs)
	all := rt.Stats.GetAllStats()
	require.Len(t, all, 1)
	assert.EqualValues(t, 1, all[0].BatchRequests)

	cfg.Provider.Type = "unknown"
	_, err = NewFromConfig(cfg, nil)
	assert.Error(t, err)
}
