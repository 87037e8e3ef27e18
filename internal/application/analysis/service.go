// Package analysis runs one upload through validation, classification and
// best-effort persistence.
package analysis

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/calicode24/calicode/internal/application"
	aiapp "github.com/calicode24/calicode/internal/application/ai"
	domai "github.com/calicode24/calicode/internal/domain/ai"
	"github.com/calicode24/calicode/internal/domain/compliance"
	"github.com/calicode24/calicode/internal/domain/documents"
	"github.com/calicode24/calicode/internal/domain/projects"
	"github.com/calicode24/calicode/internal/domain/reports"
	"github.com/calicode24/calicode/internal/logger"
)

// Classifier never fails; see aiapp.Service
type Classifier interface {
	Classify(ctx context.Context, req domai.Request) aiapp.Outcome
}

// Command is one upload to analyze. ProjectID is optional; without it nothing
// is persisted. DeclaredType is the multipart Content-Type, possibly empty.
type Command struct {
	UserID         string
	ProjectID      string
	Context        string
	FileName       string
	DeclaredType   string
	Size           int64
	Body           io.Reader
	IdempotencyKey string
}

// Persisted reports which persistence steps succeeded
type Persisted struct {
	FileURL    string
	DocumentID string
	ReportID   string
	Uploaded   bool
	Status     projects.Status
	Failures   []string
}

type Result struct {
	Analysis  compliance.Analysis
	Source    compliance.Source
	Persisted *Persisted
}

type Service struct {
	Encoder    *documents.Encoder
	Classifier Classifier
	Projects   projects.Repository
	Documents  documents.Repository
	Reports    reports.Repository
	Store      documents.ObjectStore
	Text       documents.TextExtractor
	Clock      application.Clock
	Log        logger.Interface
}

// idNamespace scopes ids derived from idempotency keys
var idNamespace = uuid.MustParse("0b8f3c52-7d8e-4c0a-9a51-5b1c2e6f4d10")

// Analyze validates and classifies the upload, then persists it when a
// project is given. Only validation and read errors are returned; every
// persistence failure is logged and recorded in Persisted.Failures.
func (s *Service) Analyze(ctx context.Context, cmd Command) (Result, error) {
	log := s.logger().With("user_id", cmd.UserID, "project_id", cmd.ProjectID)

	head, body, err := documents.Sniff(cmd.Body)
	if err != nil {
		return Result{}, err
	}
	mediaType := documents.DetectMediaType(cmd.DeclaredType, cmd.FileName, head)
	if err := s.Encoder.Validate(mediaType, cmd.Size); err != nil {
		return Result{}, err
	}
	enc, err := s.Encoder.Encode(body, mediaType, cmd.FileName, cmd.Size)
	if err != nil {
		return Result{}, err
	}

	out := s.Classifier.Classify(ctx, domai.Request{Document: enc, Context: strings.TrimSpace(cmd.Context)})
	log.Info("document classified",
		"file_name", enc.Name, "media_type", enc.MediaType, "size", enc.Size,
		"source", out.Source, "status", out.Analysis.Status, "confidence", out.Analysis.Confidence)

	res := Result{Analysis: out.Analysis, Source: out.Source}
	if cmd.ProjectID == "" {
		return res, nil
	}
	// persistence must not be cut short by a client that already has its answer
	res.Persisted = s.persist(context.WithoutCancel(ctx), log, cmd, enc, out)
	return res, nil
}

func (s *Service) persist(ctx context.Context, log logger.Interface, cmd Command, enc documents.Encoded, out aiapp.Outcome) *Persisted {
	p := &Persisted{}
	fail := func(step string, err error) {
		p.Failures = append(p.Failures, step)
		log.Error("persistence step failed", "step", step, "error", err)
	}

	if _, err := uuid.Parse(cmd.ProjectID); err != nil {
		fail("project_lookup", err)
		return p
	}
	// a project the user does not own stops here; any other lookup error is
	// left to the owner-scoped status update below
	if _, err := s.Projects.Get(ctx, cmd.UserID, cmd.ProjectID); errors.Is(err, sql.ErrNoRows) {
		fail("project_lookup", err)
		return p
	} else if err != nil {
		fail("project_lookup", err)
	}

	now := s.clock().Now()
	docID, reportID := s.ids(cmd)

	key := documents.ObjectKey(cmd.UserID, cmd.ProjectID, now, enc.Name)
	url, err := s.Store.Put(ctx, key, bytes.NewReader(enc.Raw), enc.Size, enc.MediaType)
	if err != nil {
		fail("upload", err)
	} else {
		p.FileURL, p.Uploaded = url, true
	}

	recognized := out.Analysis.Reasoning
	if s.Text != nil && enc.MediaType == "application/pdf" {
		if text, err := s.Text.Extract(enc.Raw, enc.MediaType); err == nil && text != "" {
			recognized = text
		} else if err != nil {
			log.Warn("pdf text extraction failed", "error", err)
		}
	}

	size := enc.Size
	mime := enc.MediaType
	doc := &documents.Document{
		ID:             docID,
		ProjectID:      cmd.ProjectID,
		FileURL:        p.FileURL,
		FileName:       enc.Name,
		FileSize:       &size,
		MimeType:       &mime,
		DocumentType:   documents.TypeFloorPlan,
		RecognizedText: &recognized,
		CreatedAt:      now,
	}
	var docRef *string
	if err := s.Documents.Insert(ctx, doc); err != nil {
		fail("insert_document", err)
	} else {
		p.DocumentID = doc.ID
		docRef = &doc.ID
	}

	rep := reports.FromAnalysis(reportID, cmd.ProjectID, docRef, out.Analysis, out.Raw, out.Model)
	rep.CreatedAt = now
	if err := s.Reports.Insert(ctx, rep); err != nil {
		fail("insert_report", err)
	} else {
		p.ReportID = rep.ID
	}

	status := projects.StatusFor(out.Analysis.Status)
	if err := s.Projects.UpdateStatus(ctx, cmd.UserID, cmd.ProjectID, status); err != nil {
		fail("update_project_status", err)
	} else {
		p.Status = status
	}

	if len(p.Failures) == 0 {
		log.Info("analysis persisted", "document_id", p.DocumentID, "report_id", p.ReportID, "status", status)
	}
	return p
}

// ids are random, or derived from the idempotency key so a retried request
// hits the same rows.
func (s *Service) ids(cmd Command) (string, string) {
	if cmd.IdempotencyKey == "" {
		return uuid.NewString(), uuid.NewString()
	}
	base := cmd.UserID + "/" + cmd.ProjectID + "/" + cmd.IdempotencyKey
	return uuid.NewSHA1(idNamespace, []byte(base+"/document")).String(),
		uuid.NewSHA1(idNamespace, []byte(base+"/report")).String()
}

func (s *Service) logger() logger.Interface {
	if s.Log == nil {
		return logger.Nop()
	}
	return s.Log
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

// IsInputError reports whether err is the caller's fault (bad type, size or
// unreadable body) rather than an internal failure.
func IsInputError(err error) bool {
	var v *documents.ValidationError
	var r *documents.ReadError
	return errors.As(err, &v) || errors.As(err, &r)
}
