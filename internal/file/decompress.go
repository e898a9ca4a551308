package file

import (
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// DecompressPool manages reusable raw DEFLATE decoders to reduce allocation
// overhead.
type DecompressPool struct {
	pool sync.Pool
}

// NewDecompressPool creates an empty decoder pool.
func NewDecompressPool() *DecompressPool {
	return &DecompressPool{}
}

// Get returns a decoder configured to read from r.
// The caller must call the returned release function when done and must
// not use the decoder afterwards.
func (p *DecompressPool) Get(r io.Reader) (io.ReadCloser, func()) {
	if p == nil {
		dec := flate.NewReader(r)
		return dec, func() { _ = dec.Close() }
	}

	if v, ok := p.pool.Get().(io.ReadCloser); ok {
		if rs, ok := v.(flate.Resetter); ok && rs.Reset(r, nil) == nil {
			return v, p.release(v)
		}
	}
	dec := flate.NewReader(r)
	return dec, p.release(dec)
}

func (p *DecompressPool) release(dec io.ReadCloser) func() {
	return func() {
		p.pool.Put(dec)
	}
}
