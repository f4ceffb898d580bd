package procrun

import "bytes"

// capBuffer is a write sink that keeps at most limit bytes and silently
// discards the rest. Writes never fail, so a runaway child keeps running
// until its deadline instead of dying on a broken pipe.
type capBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newCapBuffer(limit int) *capBuffer {
	return &capBuffer{limit: limit}
}

func (b *capBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *capBuffer) String() string {
	return b.buf.String()
}
