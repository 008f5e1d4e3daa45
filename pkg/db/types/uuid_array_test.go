package dbtypes

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDArrayValue(t *testing.T) {
	empty, err := UUIDArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", empty)

	id := uuid.MustParse("3f2c1a5e-8d4b-4c6a-9e1f-2b3c4d5e6f70")
	v, err := UUIDArray{id}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"3f2c1a5e-8d4b-4c6a-9e1f-2b3c4d5e6f70"}`, v)
}

func TestUUIDArrayScan(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	var got UUIDArray
	require.NoError(t, got.Scan([]byte("{"+a.String()+","+b.String()+"}")))
	assert.Equal(t, UUIDArray{a, b}, got)
	assert.True(t, got.Contains(b))
	assert.False(t, got.Contains(uuid.New()))

	require.NoError(t, got.Scan(`{"`+a.String()+`"}`))
	assert.Equal(t, UUIDArray{a}, got)

	require.NoError(t, got.Scan(nil))
	assert.Equal(t, UUIDArray{}, got)

	assert.Error(t, got.Scan("{not-a-uuid}"))
	assert.Error(t, got.Scan(42))
}
