package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesOnCode(t *testing.T) {
	err := StateConflict("only OPEN items accept bids")

	assert.True(t, errors.Is(err, ErrStateConflict))
	assert.False(t, errors.Is(err, ErrForbidden))

	wrapped := fmt.Errorf("place bid: %w", err)
	assert.True(t, errors.Is(wrapped, ErrStateConflict))
}

func TestWithCopiesDetails(t *testing.T) {
	base := Unprocessable("bid too low")
	withMin := base.With("min_bid", int64(200))

	assert.Nil(t, base.Details)
	assert.Equal(t, int64(200), withMin.Details["min_bid"])

	both := withMin.With("bid_unit", int64(100))
	assert.Len(t, withMin.Details, 1)
	assert.Len(t, both.Details, 2)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("wrap: %w", NotFound("item not found"))))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))

	appErr, ok := As(fmt.Errorf("wrap: %w", Forbidden("nope")))
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}
