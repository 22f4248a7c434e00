package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer(t *testing.T) {
	bb := NewByteBuffer(16)

	n, err := bb.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 3, bb.Len())
	require.Equal(t, []byte("abc"), bb.Bytes())

	var out bytes.Buffer
	written, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(3), written)
	require.Equal(t, "abc", out.String())

	bb.Reset()
	require.Zero(t, bb.Len())
}

func TestByteBufferPool(t *testing.T) {
	p := NewByteBufferPool(8, 64)

	bb := p.Get()
	require.NotNil(t, bb)
	_, _ = bb.Write([]byte("data"))
	p.Put(bb)

	reused := p.Get()
	require.Zero(t, reused.Len())

	// Oversized buffers are dropped, not pooled.
	big := NewByteBuffer(128)
	p.Put(big)

	p.Put(nil) // must not panic
}

func TestDefaultPool(t *testing.T) {
	bb := GetBuffer()
	require.NotNil(t, bb)
	_, _ = bb.Write(make([]byte, 100))
	PutBuffer(bb)
}
