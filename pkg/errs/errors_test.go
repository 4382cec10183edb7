package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, StatusCode(Unauthorized("invalid token")))
	assert.Equal(t, http.StatusForbidden, StatusCode(Forbidden("insufficient role")))
	assert.Equal(t, http.StatusNotFound, StatusCode(NotFound("company not found")))
	assert.Equal(t, http.StatusConflict, StatusCode(Conflict("duplicate")))
	assert.Equal(t, http.StatusBadRequest, StatusCode(BadRequest("bad")))
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(New(ErrTooManyRequests, "slow down")))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
	assert.Equal(t, http.StatusNotFound, StatusCode(fmt.Errorf("lookup: %w", ErrNotFound)))
}

func TestWrapKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:443: i/o timeout")
	err := Wrap(ErrUnauthorized, "invalid token", cause)

	assert.Equal(t, "invalid token", err.Error())
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "invalid token", PublicMessage(fmt.Errorf("validate: %w", err)))
}

func TestPublicMessageHidesInternal(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(Internal("db exploded", errors.New("pq: relation missing"))))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("raw")))
	assert.Equal(t, "resource not found", PublicMessage(fmt.Errorf("x: %w", ErrNotFound)))
}
