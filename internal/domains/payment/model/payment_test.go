package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxnRef_RoundTrip(t *testing.T) {
	id := uuid.New()
	ref := NewTxnRef(id, time.Unix(1735689600, 0))

	assert.NotContains(t, ref, "-")
	assert.Contains(t, ref, "_1735689600")

	parsed, err := ParseTxnRef(ref)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseTxnRef_Invalid(t *testing.T) {
	for _, ref := range []string{
		"",
		"abc",
		"250101000001XYZ",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz_1",
		uuid.NewString() + "_1",
		"0123456789abcdef0123456789abcdef_notatime",
	} {
		_, err := ParseTxnRef(ref)
		assert.ErrorIs(t, err, ErrInvalidTxnRef, ref)
	}
}
