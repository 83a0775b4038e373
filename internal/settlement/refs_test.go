package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMerchantUID(t *testing.T) {
	id, err := ParseMerchantUID("payment_42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestParseMerchantUIDRejectsGarbage(t *testing.T) {
	for _, uid := range []string{"", "payment_", "payment_abc", "payment_0", "order_42", "42"} {
		_, err := ParseMerchantUID(uid)
		assert.ErrorIs(t, err, ErrPreconditionFailed, "uid %q", uid)
	}
}
