package protocol

import "hash/crc32"

// The device uses two reflected CRC-32 variants: the ISO-3309 polynomial
// (0xEDB88320) guards the settings blob stored in flash, and Castagnoli
// (0x82F63B78) guards every wire frame. Both run with the standard
// 0xFFFFFFFF init and final XOR, so hash/crc32's table-driven
// implementation matches the firmware bit for bit.

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// BlobChecksum computes the settings-blob CRC-32 (ISO-3309 polynomial)
// over the concatenation of the given chunks.
func BlobChecksum(chunks ...[]byte) uint32 {
	var crc uint32
	for _, c := range chunks {
		crc = crc32.Update(crc, crc32.IEEETable, c)
	}
	return crc
}

// FrameChecksum computes the wire-frame CRC-32C (Castagnoli polynomial)
// over the concatenation of the given chunks.
func FrameChecksum(chunks ...[]byte) uint32 {
	var crc uint32
	for _, c := range chunks {
		crc = crc32.Update(crc, castagnoliTable, c)
	}
	return crc
}
