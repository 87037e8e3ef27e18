package documents

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes is the upload ceiling when none is configured
const DefaultMaxBytes int64 = 100 * 1024 * 1024

// Accepted media types, in the order shown to users
var AcceptedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/heic",
	"application/pdf",
}

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrEmpty           = errors.New("file is empty")
)

// ValidationError is returned when an upload breaks the type or size rules
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

// ReadError is returned when the upload cannot be read
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return "read upload: " + e.Err.Error() }
func (e *ReadError) Unwrap() error { return e.Err }

// Encoded is an upload ready to be sent to the classifier
type Encoded struct {
	Data      string // base64, standard alphabet
	MediaType string
	Name      string
	Size      int64
	Raw       []byte
}

// Encoder validates and base64-encodes uploads
type Encoder struct {
	MaxBytes int64
}

func NewEncoder(maxBytes int64) *Encoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Encoder{MaxBytes: maxBytes}
}

// Accepted reports whether mediaType is one of AcceptedTypes
func Accepted(mediaType string) bool {
	for _, t := range AcceptedTypes {
		if t == mediaType {
			return true
		}
	}
	return false
}

// Validate checks the declared media type and size before any bytes are read.
func (e *Encoder) Validate(mediaType string, size int64) error {
	if !Accepted(mediaType) {
		return &ValidationError{Err: ErrUnsupportedType, Message: "Please upload a JPG, PNG, WebP, HEIC, or PDF file."}
	}
	if size > e.MaxBytes {
		return &ValidationError{Err: ErrTooLarge, Message: fmt.Sprintf("File must be under %dMB", e.MaxBytes/(1024*1024))}
	}
	if size == 0 {
		return &ValidationError{Err: ErrEmpty, Message: "Uploaded file is empty"}
	}
	return nil
}

// Encode validates the upload, reads it fully and returns its base64 form.
func (e *Encoder) Encode(r io.Reader, mediaType, name string, size int64) (Encoded, error) {
	if err := e.Validate(mediaType, size); err != nil {
		return Encoded{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, e.MaxBytes+1))
	if err != nil {
		return Encoded{}, &ReadError{Err: err}
	}
	// the declared size may lie
	if err := e.Validate(mediaType, int64(len(data))); err != nil {
		return Encoded{}, err
	}

	return Encoded{
		Data:      base64.StdEncoding.EncodeToString(data),
		MediaType: mediaType,
		Name:      name,
		Size:      int64(len(data)),
		Raw:       data,
	}, nil
}

// DetectMediaType picks the media type of an upload. A specific declared type
// wins; otherwise the file extension, then the leading bytes, decide.
func DetectMediaType(declared, filename string, head []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "" && mt != "application/octet-stream" {
		return normalize(mt)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".pdf":
		return "application/pdf"
	}

	if len(head) > 0 {
		mt := mimetype.Detect(head).String()
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		return normalize(mt)
	}
	return "application/octet-stream"
}

func normalize(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if mt == "image/jpg" || mt == "image/pjpeg" {
		return "image/jpeg"
	}
	return mt
}

// Sniff reads up to 3KB of r for media type detection and returns a reader
// that still yields the whole stream.
func Sniff(r io.Reader) ([]byte, io.Reader, error) {
	head := make([]byte, 3072)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, &ReadError{Err: err}
	}
	head = head[:n]
	return head, io.MultiReader(bytes.NewReader(head), r), nil
}
