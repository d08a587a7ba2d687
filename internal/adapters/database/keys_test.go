package database

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnKey_PreservesOrder(t *testing.T) {
	keys := []uint64{0, 1, 42, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64 - 1, math.MaxUint64}

	for i, k := range keys {
		assert.Equal(t, k, fromColumnKey(toColumnKey(k)))
		if i > 0 {
			assert.Less(t, toColumnKey(keys[i-1]), toColumnKey(k), "order of %d and %d", keys[i-1], k)
		}
	}

	assert.Equal(t, int64(math.MinInt64), toColumnKey(0))
	assert.Equal(t, int64(math.MaxInt64), toColumnKey(math.MaxUint64))
}
