package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/calicode24/calicode/internal/domain/ai"
	"github.com/calicode24/calicode/internal/domain/documents"
)

func request() domai.Request {
	return domai.Request{
		Document: documents.Encoded{Data: "aGVsbG8=", MediaType: "image/png", Name: "plan.png", Size: 5},
		Context:  "Climate Zone 12",
	}
}

func TestClassifySendsInlineDocument(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "k1", r.URL.Query().Get("key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"status\":\"PASS\"}"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient("k1", "", srv.URL, time.Second)
	resp, err := c.Classify(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, `{"status":"PASS"}`, resp.Text)
	assert.Contains(t, string(resp.Raw), "candidates")
	assert.Equal(t, "gemini-1.5-pro", c.Model())

	parts := got["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].(map[string]any)["text"], "Additional context from the contractor: Climate Zone 12")
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/png", inline["mime_type"])
	assert.Equal(t, "aGVsbG8=", inline["data"])

	cfg := got["generationConfig"].(map[string]any)
	assert.Equal(t, 0.2, cfg["temperature"])
	assert.Equal(t, float64(4096), cfg["maxOutputTokens"])
}

func TestClassifyErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"quota", http.StatusTooManyRequests, `{}`, domai.ErrQuotaExceeded},
		{"empty", http.StatusOK, `{"candidates":[]}`, domai.ErrEmptyResponse},
		{"server", http.StatusInternalServerError, `oops`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient("k1", "", srv.URL, time.Second).Classify(context.Background(), request())
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestClassifyWithoutKey(t *testing.T) {
	_, err := NewClient(domai.PlaceholderKey, "", "http://127.0.0.1:0", time.Second).Classify(context.Background(), request())
	assert.ErrorIs(t, err, domai.ErrNotConfigured)
}
