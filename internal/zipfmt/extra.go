package zipfmt

import "errors"

var (
	errMissingZip64 = errors.New("zip64 extra field missing")
	errShortZip64   = errors.New("zip64 extra field too short")
)

// findZip64 walks the extra field blocks in extra and returns the payload
// of the ZIP64 extended information block.
func findZip64(extra []byte) (readBuf, bool) {
	b := readBuf(extra)
	for len(b) >= 4 {
		tag := b.uint16()
		size := int(b.uint16())
		if size > len(b) {
			return nil, false
		}
		data := b.sub(size)
		if tag == Zip64ExtraID {
			return data, true
		}
	}
	return nil, false
}
