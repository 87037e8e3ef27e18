package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calicode24/calicode/internal/config"
)

func TestURLWithPublicBase(t *testing.T) {
	s, err := New(config.StorageConfig{
		Endpoint:      "abc.supabase.co",
		Bucket:        "project-files",
		UseSSL:        true,
		PublicBaseURL: "https://abc.supabase.co/storage/v1/object/public/project-files/",
	})
	require.NoError(t, err)

	got := s.URL("u1/p1/1700000000000-floor plan.pdf")
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/project-files/u1/p1/1700000000000-floor%20plan.pdf", got)
}

func TestURLPathStyle(t *testing.T) {
	s, err := New(config.StorageConfig{Endpoint: "localhost:9000", Bucket: "project-files"})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/project-files/u1/p1/1-a.jpg", s.URL("u1/p1/1-a.jpg"))
}
