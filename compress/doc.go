// Package compress provides the compression codecs used by trajectory
// archives.
//
// An archive stores an assembled load result as a single compressed blob, so
// compression operates on one large payload of packed samples rather than
// many small ones. The supported algorithms trade ratio against speed:
//
//   - None: no compression (fastest, largest)
//   - Zstd: best ratio, moderate speed; the default for archives
//   - S2: balanced ratio and speed
//   - LZ4: fastest decompression, moderate ratio
//
// Zstd has two implementations selected at build time: the cgo build uses
// valyala/gozstd (libzstd bindings), the pure-Go build uses
// klauspost/compress/zstd. The two produce interchangeable streams.
//
// All codecs are safe for concurrent use.
package compress
