package database

// Item keys are unsigned but Postgres only has signed integers. Flipping the
// sign bit maps 0..2^64-1 onto MinInt64..MaxInt64 preserving order.

func toColumnKey(key uint64) int64 {
	return int64(key ^ (1 << 63))
}

func fromColumnKey(col int64) uint64 {
	return uint64(col) ^ (1 << 63)
}
