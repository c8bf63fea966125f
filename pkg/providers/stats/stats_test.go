package stats

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-transflow/pkg/providers"
)

type echoProvider struct {
	fail bool
}

func (p *echoProvider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	if p.fail {
		return nil, providers.NewError("rate_limit", "slow down")
	}
	return &providers.ProviderResponse{Text: req.Text + "!"}, nil
}

func (p *echoProvider) GetName() string        { return "echo" }
func (p *echoProvider) SupportsGlossary() bool { return true }

type echoBatchProvider struct {
	echoProvider
}

func (p *echoBatchProvider) TranslateBatch(ctx context.Context, req *providers.BatchRequest) (*providers.BatchResponse, error) {
	return &providers.BatchResponse{Texts: req.Texts}, nil
}

func TestWrapRecordsRequests(t *testing.T) {
	manager := NewStatsManager()
	p := Wrap(&echoProvider{}, manager)

	_, isBatch := p.(providers.BatchProvider)
	assert.False(t, isBatch)
	assert.Equal(t, "echo", p.GetName())
	assert.True(t, p.SupportsGlossary())

	resp, err := p.Translate(context.Background(), &providers.ProviderRequest{Text: "héllo"})
	require.NoError(t, err)
	assert.Equal(t, "héllo!", resp.Text)

	stats := manager.GetStats("echo")
	require.NotNil(t, stats)
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.SuccessfulRequests)
	assert.Equal(t, int64(5), stats.CharactersIn)
	assert.Equal(t, int64(6), stats.CharactersOut)
	assert.InDelta(t, 100.0, stats.SuccessRate(), 0.001)
}

func TestWrapRecordsFailures(t *testing.T) {
	manager := NewStatsManager()
	p := Wrap(&echoProvider{fail: true}, manager)

	_, err := p.Translate(context.Background(), &providers.ProviderRequest{Text: "x"})
	require.Error(t, err)

	stats := manager.GetStats("echo")
	require.NotNil(t, stats)
	assert.Equal(t, int64(1), stats.FailedRequests)
	assert.Equal(t, int64(1), stats.ErrorTypes["rate_limit"])
}

func TestWrapKeepsBatchCapability(t *testing.T) {
	manager := NewStatsManager()
	p := Wrap(&echoBatchProvider{}, manager)

	batch, ok := p.(providers.BatchProvider)
	require.True(t, ok)

	resp, err := batch.TranslateBatch(context.Background(), &providers.BatchRequest{Texts: []string{"ab", "cd"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "cd"}, resp.Texts)

	stats := manager.GetStats("echo")
	require.NotNil(t, stats)
	assert.Equal(t, int64(1), stats.BatchRequests)
	assert.Equal(t, int64(4), stats.CharactersIn)
}

func TestStatsManagerConcurrent(t *testing.T) {
	manager := NewStatsManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			manager.RecordRequest("p", RequestResult{Success: i%2 == 0, ErrorType: "x"})
		}(i)
	}
	wg.Wait()

	all := manager.GetAllStats()
	require.Len(t, all, 1)
	assert.Equal(t, int64(50), all[0].TotalRequests)
	assert.Equal(t, int64(25), all[0].FailedRequests)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "auth_failed", classifyError(providers.NewError("auth_failed", "no")))
	assert.Equal(t, "network_error", classifyError(errors.New("connection refused")))
	assert.Equal(t, "unknown_error", classifyError(errors.New("weird")))
}
