package ethernet

import (
	"hash/crc32"

	"github.com/pedoc/pnet"
)

// crcTable is the IEEE CRC-32 table used for Ethernet FCS calculation.
var crcTable = crc32.MakeTable(crc32.IEEE)

// CRC32 calculates the Ethernet Frame Check Sequence (FCS) for the given data.
// The CRC is computed using the IEEE 802.3 CRC-32 polynomial.
// The input should be the frame data from destination MAC through payload,
// excluding any existing FCS.
func CRC32(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// PutFCS appends the FCS of data in transmission order to the 4 bytes
// immediately following data inside buf, where buf = data plus a 4-byte
// trailer. The FCS is transmitted least significant byte first.
func PutFCS(buf []byte, dataLen int) {
	pnet.LittleEndian.PutUint32(buf[dataLen:dataLen+4], CRC32(buf[:dataLen]))
}

// VerifyFCS reports whether the last 4 bytes of buf hold the correct FCS for
// the preceding bytes.
func VerifyFCS(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	dataLen := len(buf) - 4
	return pnet.LittleEndian.Uint32(buf[dataLen:]) == CRC32(buf[:dataLen])
}
