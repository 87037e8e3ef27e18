package ai

import (
	"context"
	"encoding/json"
	"errors"

	domain "github.com/calicode24/calicode/internal/domain/ai"
	"github.com/calicode24/calicode/internal/domain/compliance"
	"github.com/calicode24/calicode/internal/infra/ai/prompt"
	"github.com/calicode24/calicode/internal/logger"
)

// Outcome is a classification that is always usable by the caller
type Outcome struct {
	Analysis compliance.Analysis
	Source   compliance.Source
	// Raw is the upstream payload, or the analysis itself when no model answered.
	Raw   json.RawMessage
	Model string
}

// Service wraps a classifier and never fails: unreachable or unconfigured
// models yield the demo analysis, unreadable answers a low-confidence FAIL.
type Service struct {
	client domain.Client
	log    logger.Interface
}

func NewService(client domain.Client, log logger.Interface) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{client: client, log: log.Named("classifier")}
}

// Model is the identifier written to reports
func (s *Service) Model() string {
	if s.client == nil {
		return ""
	}
	return s.client.Model()
}

func (s *Service) Classify(ctx context.Context, req domain.Request) Outcome {
	if s.client == nil {
		s.log.Warn("no classifier configured, returning demo analysis")
		return s.demo()
	}

	resp, err := s.client.Classify(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotConfigured):
			s.log.Warn("classifier credential not set, returning demo analysis")
		case errors.Is(err, domain.ErrQuotaExceeded):
			s.log.Warn("classifier quota exceeded, returning demo analysis")
		default:
			s.log.Error("classifier request failed, returning demo analysis", "error", err)
		}
		return s.demo()
	}

	analysis, err := prompt.ParseAnalysis(resp.Text)
	if err != nil {
		var malformed *prompt.MalformedError
		if !errors.As(err, &malformed) {
			malformed = &prompt.MalformedError{Raw: resp.Text, Cause: err}
		}
		s.log.Warn("classifier returned unstructured output", "error", malformed.Cause, "length", len(resp.Text))
		return Outcome{
			Analysis: compliance.LowConfidence(malformed.Raw),
			Source:   compliance.SourceMalformed,
			Raw:      rawOrText(resp),
			Model:    s.Model(),
		}
	}

	return Outcome{
		Analysis: analysis,
		Source:   compliance.SourceModel,
		Raw:      rawOrText(resp),
		Model:    s.Model(),
	}
}

func (s *Service) demo() Outcome {
	a := compliance.Demo()
	raw, _ := json.Marshal(a)
	return Outcome{Analysis: a, Source: compliance.SourceDemo, Raw: raw, Model: s.Model()}
}

func rawOrText(resp domain.Response) json.RawMessage {
	if len(resp.Raw) > 0 && json.Valid(resp.Raw) {
		return resp.Raw
	}
	b, _ := json.Marshal(resp.Text)
	return b
}
