package apperror

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsFindsWrapped(t *testing.T) {
	base := Conflict("An account with this email already exists.").Wrap(sql.ErrNoRows)
	err := fmt.Errorf("signup: %w", base)

	got, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, got.Code)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Contains(t, got.Error(), "conflict")
}

func TestAsMissing(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}

func TestWithExtra(t *testing.T) {
	e := Forbidden("limit").With("upgrade", true)
	assert.Equal(t, true, e.Extra["upgrade"])
	assert.Equal(t, http.StatusForbidden, e.Code)
}
