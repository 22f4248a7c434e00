// Package archive persists assembled load results as single compressed
// files, so a selection that took a full shard sweep to assemble can be
// reopened without touching the dataset again.
//
// File layout:
//
//	┌──────────────────────┬───────────────────────────────┐
//	│ Header (32 bytes)    │ Compressed payload            │
//	└──────────────────────┴───────────────────────────────┘
//
// Header:
//
//	Offset  Size  Field
//	0       4     Magic "TDAR"
//	4       4     Format version
//	8       1     Endianness flag (payload byte order)
//	9       1     Compression type
//	10      2     Reserved
//	12      4     Trajectory count
//	16      8     Uncompressed payload size
//	24      8     Created-at (unix seconds)
//
// The payload is the per-trajectory records concatenated in order:
//
//	Offset  Size  Field
//	0       8     Trajectory ID
//	8       12    Extent (3 x float32)
//	20      4     Sample count N
//	24      8N    Time steps (int64 each)
//	24+8N   12N   Samples (3 x float32 each)
//
// The endianness flag is read as a raw byte; every other multi-byte field in
// the header and payload is encoded in the byte order it declares.
package archive
