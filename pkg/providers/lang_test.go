package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"en":      "EN",
		"EN":      "EN",
		"ko":      "KO",
		"en_us":   "EN-US",
		"pt-br":   "PT-BR",
		"English": "EN",
		"korean":  "KO",
		" ja ":    "JA",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCode(in), "input %q", in)
	}
}

func TestBaseCode(t *testing.T) {
	assert.Equal(t, "EN", BaseCode("en-GB"))
	assert.Equal(t, "ZH", BaseCode("zh_TW"))
	assert.Equal(t, "", BaseCode(""))
}

func TestStatusError(t *testing.T) {
	codes := map[int]string{
		http.StatusTooManyRequests:     "rate_limit",
		http.StatusForbidden:           "auth_failed",
		456:                            "quota_exceeded",
		http.StatusInternalServerError: "server_error",
		http.StatusBadRequest:          "bad_request",
	}

	for status, want := range codes {
		rec := httptest.NewRecorder()
		rec.WriteHeader(status)
		_, _ = rec.WriteString("details")

		err := StatusError("demo", rec.Result())
		require.NotNil(t, err)
		assert.Equal(t, want, err.Code)
		assert.Contains(t, err.Message, "details")
		assert.Equal(t, status, err.Details["status"])
	}

	assert.True(t, NewError("rate_limit", "x").IsRetryable())
	assert.False(t, NewError("auth_failed", "x").IsRetryable())
}
