package compress

// ZstdCompressor provides Zstandard compression, the default codec for
// trajectory archives: the best ratio on packed float payloads at an
// acceptable speed.
//
// The implementation is selected at build time; see zstd_cgo.go and
// zstd_pure.go.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
