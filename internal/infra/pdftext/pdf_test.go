package pdftext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIgnoresImages(t *testing.T) {
	text, err := Extractor{}.Extract([]byte{0x89, 'P', 'N', 'G'}, "image/png")
	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := Extractor{}.Extract([]byte("not a pdf"), "application/pdf")
	assert.Error(t, err)
}
