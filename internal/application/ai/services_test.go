package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/calicode24/calicode/internal/domain/ai"
	"github.com/calicode24/calicode/internal/domain/compliance"
)

type fakeClient struct {
	resp domain.Response
	err  error
}

func (f fakeClient) Classify(context.Context, domain.Request) (domain.Response, error) {
	return f.resp, f.err
}

func (fakeClient) Model() string { return "gemini-test" }

func TestClassifyModelAnswer(t *testing.T) {
	raw := json.RawMessage(`{"candidates":[]}`)
	svc := NewService(fakeClient{resp: domain.Response{
		Text: "```json\n{\"status\":\"pass\",\"confidence\":1.7,\"citations\":[\"Section 150.0(k)\"],\"reasoning\":\"ok\"}\n```",
		Raw:  raw,
	}}, nil)

	out := svc.Classify(context.Background(), domain.Request{})
	assert.Equal(t, compliance.SourceModel, out.Source)
	assert.Equal(t, compliance.StatusPass, out.Analysis.Status)
	assert.Equal(t, 1.0, out.Analysis.Confidence)
	assert.Equal(t, []string{}, out.Analysis.Fixes)
	assert.JSONEq(t, string(raw), string(out.Raw))
	assert.Equal(t, "gemini-test", out.Model)
}

func TestClassifyFallsBackToDemo(t *testing.T) {
	for _, err := range []error{
		domain.ErrNotConfigured,
		domain.ErrQuotaExceeded,
		errors.New("dial tcp: connection refused"),
		context.DeadlineExceeded,
	} {
		out := NewService(fakeClient{err: err}, nil).Classify(context.Background(), domain.Request{})
		assert.Equal(t, compliance.SourceDemo, out.Source, err.Error())
		assert.Equal(t, compliance.Demo(), out.Analysis)
		assert.True(t, json.Valid(out.Raw))
	}
}

func TestClassifyNilClientIsDemo(t *testing.T) {
	out := NewService(nil, nil).Classify(context.Background(), domain.Request{})
	assert.Equal(t, compliance.SourceDemo, out.Source)
	assert.Equal(t, "", out.Model)
}

func TestClassifyMalformed(t *testing.T) {
	cases := []string{
		"I cannot tell from this photo.",
		`{"status":"MAYBE","confidence":0.5}`,
	}
	for _, text := range cases {
		out := NewService(fakeClient{resp: domain.Response{Text: text}}, nil).Classify(context.Background(), domain.Request{})
		require.Equal(t, compliance.SourceMalformed, out.Source, text)
		assert.Equal(t, compliance.StatusFail, out.Analysis.Status)
		assert.Equal(t, 0.2, out.Analysis.Confidence)
		assert.Contains(t, out.Analysis.Reasoning, text)
		assert.True(t, json.Valid(out.Raw))
	}
}
