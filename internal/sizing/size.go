// Package sizing provides overflow-checked conversions between the 64-bit
// sizes recorded in ZIP headers and the int/int64 values the io package uses.
package sizing

import (
	"errors"
	"io"
	"math"
)

// ToInt converts a uint64 to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// ToInt64 converts a uint64 to int64, returning overflowErr if it doesn't fit.
func ToInt64(size uint64, overflowErr error) (int64, error) {
	if size > uint64(math.MaxInt64) {
		return 0, overflowErr
	}
	return int64(size), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// ReadUpTo reads at most limit+1 bytes from r into a buffer allocated once,
// so callers can tell an exact length from an overlong stream without
// buffering the excess.
func ReadUpTo(r io.Reader, limit uint64, overflowErr error) ([]byte, error) {
	if limit >= uint64(math.MaxInt) {
		return nil, overflowErr
	}
	buf := make([]byte, 0, int(limit)+1)
	for len(buf) < cap(buf) {
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if errors.Is(err, io.EOF) {
			return buf, nil
		}
		if err != nil {
			return buf, err
		}
	}
	return buf, nil
}
