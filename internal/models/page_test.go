package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	s, err := ParseSort("createdAt,DESC", "createdAt", "amount")
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: "createdAt", Desc: true}, s)

	s, err = ParseSort("amount,asc", "createdAt", "amount")
	require.NoError(t, err)
	assert.False(t, s.Desc)
	assert.Equal(t, "amount,ASC", s.String())

	s, err = ParseSort("amount", "amount")
	require.NoError(t, err)
	assert.True(t, s.Desc)

	_, err = ParseSort("price,DESC", "amount")
	assert.Error(t, err)

	_, err = ParseSort("amount,SIDEWAYS", "amount")
	assert.Error(t, err)
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2}, PageRequest{Page: 1, Size: 2}, 5, Sort{Field: "amount", Desc: true})
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, "amount,DESC", p.Sort)

	empty := NewPage[int](nil, PageRequest{Page: 0, Size: 20}, 0, Sort{Field: "amount", Desc: true})
	assert.NotNil(t, empty.Content)
	assert.Equal(t, 0, empty.TotalPages)
}
