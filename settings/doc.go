// Package settings implements the binary codec for the adapter's
// non-volatile settings image.
//
// # Blob Format
//
// A settings blob is a fixed 1024-byte image: a 32-byte header at fixed
// offsets, a catalog of TLV fields described by a compile-time
// descriptor table, reserved bytes this package does not model, and a
// trailing CRC-32 over everything before it.
//
//	[HEADER(32)][TLV FIELDS][RESERVED][CRC32(4)]
//
// Each TLV field stores one instance per profile, every instance
// prefixed by a [type u16][length u16] tag that must match the
// descriptor exactly. All multi-byte values are little-endian; floats
// are IEEE-754 32-bit.
//
// # Parse and Build
//
// Parse decodes a blob into a Document: the header, plus an editable
// Draft built entirely from fixed-size value types, so copying a draft
// is a deep copy and drafts never alias.
//
// Build re-encodes by copying the base blob and patching only the
// modeled regions, so reserved bytes round-trip untouched, then rewrites
// the trailing CRC.
//
// A CRC mismatch during Parse does not abort; it only clears
// Header.CRCValid. This keeps corrupt dumps inspectable, but every
// consumer must check the flag before trusting the data.
package settings
