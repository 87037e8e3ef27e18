package ai

import (
	"context"
	"encoding/json"

	"github.com/calicode24/calicode/internal/domain/documents"
)

// Request is one document to classify plus optional contractor context
type Request struct {
	Document documents.Encoded
	Context  string
}

// Response is the model's text answer and the provider payload it came in
type Response struct {
	Text string
	Raw  json.RawMessage
}

// Client is an inference endpoint that judges Title 24 compliance
type Client interface {
	Classify(ctx context.Context, req Request) (Response, error)
	// Model is recorded on every report produced from this client.
	Model() string
}
