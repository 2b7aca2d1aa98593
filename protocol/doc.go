// Package protocol implements the adapter's framed wire protocol.
//
// # Frame Format
//
// Every exchange is one frame: a fixed 16-byte header followed by the
// payload. All multi-byte fields are little-endian.
//
//	[MAGIC(4)][VERSION(1)][TYPE(1)][PAYLOAD_LEN(2)][SEQ(4)][CRC32C(4)][PAYLOAD...]
//
// The CRC-32C (Castagnoli) is computed over the header with the CRC
// field zeroed, followed by the payload. A magic, version or CRC
// mismatch is fatal: the stream carries no resync marker, so a corrupt
// frame means the connection is desynchronized and must be dropped.
//
// # Commands and Responses
//
// Request payloads start with an opcode byte; slotted commands put the
// slot number at offset 1. Successful responses echo the opcode before
// their data; error responses carry [CMD][ERROR_CODE] and decode to a
// *DeviceError.
//
// This package is pure: it builds and parses bytes. Sequencing, I/O and
// session state live in the device package.
//
// # Checksums
//
// Two reflected CRC-32 variants are used: ISO-3309 (BlobChecksum) for
// the settings blob and Castagnoli (FrameChecksum) for wire frames.
// Both are associative over concatenation, so chunked and whole-buffer
// computations agree.
package protocol
