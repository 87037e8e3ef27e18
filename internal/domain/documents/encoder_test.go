package documents

import (
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestEncodeAcceptedTypes(t *testing.T) {
	enc := NewEncoder(0)
	assert.Equal(t, DefaultMaxBytes, enc.MaxBytes)

	for _, mt := range AcceptedTypes {
		out, err := enc.Encode(strings.NewReader("plan"), mt, "plan.bin", 4)
		require.NoError(t, err, mt)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("plan")), out.Data)
		assert.Equal(t, mt, out.MediaType)
		assert.Equal(t, int64(4), out.Size)
	}
}

func TestEncodeRejectsUnsupportedType(t *testing.T) {
	enc := NewEncoder(1024)
	_, err := enc.Encode(failingReader{}, "image/gif", "a.gif", 10)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Equal(t, "Please upload a JPG, PNG, WebP, HEIC, or PDF file.", verr.Message)
}

func TestEncodeRejectsOversize(t *testing.T) {
	enc := NewEncoder(8)

	_, err := enc.Encode(failingReader{}, "image/png", "a.png", 9)
	assert.ErrorIs(t, err, ErrTooLarge)

	// declared size understated, actual bytes over the ceiling
	_, err = enc.Encode(strings.NewReader(strings.Repeat("a", 20)), "image/png", "a.png", 4)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestEncodeReadErrorIsNotValidation(t *testing.T) {
	enc := NewEncoder(1024)
	_, err := enc.Encode(failingReader{}, "application/pdf", "a.pdf", 10)

	var rerr *ReadError
	require.ErrorAs(t, err, &rerr)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestEncodeRejectsEmpty(t *testing.T) {
	_, err := NewEncoder(1024).Encode(strings.NewReader(""), "image/png", "a.png", 0)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDetectMediaType(t *testing.T) {
	assert.Equal(t, "image/png", DetectMediaType("image/png", "x", nil))
	assert.Equal(t, "image/jpeg", DetectMediaType("image/jpg", "x", nil))
	assert.Equal(t, "application/pdf", DetectMediaType("application/octet-stream", "plan.PDF", nil))
	assert.Equal(t, "image/heic", DetectMediaType("", "IMG_0001.heic", nil))

	pngHead := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", DetectMediaType("", "upload", pngHead))
	assert.Equal(t, "application/pdf", DetectMediaType("", "upload", []byte("%PDF-1.7\n")))
}

func TestSniffKeepsStream(t *testing.T) {
	head, r, err := Sniff(strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(head))

	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(all))
}
