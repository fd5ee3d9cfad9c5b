package pnet

// CRC791 computes the checksum defined by RFC 791 and RFC 1071. The checksum
// field for IP, TCP, UDP, ICMP and IGMP is the 16-bit ones' complement of the
// ones' complement sum of all 16-bit big-endian words covered by the checksum.
// In case of an uneven number of octets the last word is LSB padded with zeros.
//
// The zero value of CRC791 is ready to use.
type CRC791 struct {
	sum uint32
}

// Sum16Bits adds the bytes in buff to sum two at a time as big-endian 16-bit
// words. An odd trailing byte is treated as the high byte of a zero-padded
// word. The accumulator is 32 bits wide so carries are deferred until
// [FoldChecksum16].
func Sum16Bits(buff []byte) uint32 {
	var sum uint32
	odd := len(buff) & 1
	sum = sum16bitsEven(sum, buff[:len(buff)-odd])
	if odd > 0 {
		sum += uint32(buff[len(buff)-1]) << 8
	}
	return sum
}

func sum16bitsEven(sum uint32, buff []byte) uint32 {
	for i := 0; i < len(buff); i += 2 {
		sum += uint32(BigEndian.Uint16(buff[i:]))
	}
	return sum
}

// FoldChecksum16 folds carries above bit 15 back into the low 16 bits until
// the sum fits in a 16-bit word and returns its ones' complement. Applying
// FoldChecksum16 to the 16-bit sum of an already-folded value needs no extra
// rounds: after one fold the maximum value is 0x1fffe, so a second fold
// always suffices.
func FoldChecksum16(sum uint32) uint16 {
	sum = (sum & 0xffff) + sum>>16
	return ^uint16(sum + sum>>16)
}

// Checksum16 returns the RFC 1071 checksum of buff.
func Checksum16(buff []byte) uint16 {
	return FoldChecksum16(Sum16Bits(buff))
}

// VerifyChecksum16 recomputes the checksum of buff with the 16-bit checksum
// field at csOff treated as zero and compares the result against the stored
// field. csOff must be even and leave room for the 2-byte field.
func VerifyChecksum16(buff []byte, csOff int) bool {
	if csOff&1 != 0 || csOff+2 > len(buff) {
		return false
	}
	sum := sum16bitsEven(0, buff[:csOff])
	sum += Sum16Bits(buff[csOff+2:])
	return FoldChecksum16(sum) == BigEndian.Uint16(buff[csOff:])
}

// Write adds the bytes in buff to the running checksum.
// The buffer size must be even or the function will panic; use
// [CRC791.PayloadSum16] for the final odd-sized write.
func (c *CRC791) Write(buff []byte) {
	if len(buff)&1 != 0 {
		panic("pnet: odd write to CRC791")
	}
	c.sum = sum16bitsEven(c.sum, buff)
}

// AddUint16 adds a 16-bit value to the running checksum interpreted as BigEndian (network order).
func (c *CRC791) AddUint16(value uint16) {
	c.sum += uint32(value)
}

// AddUint32 adds a 32-bit value to the running checksum interpreted as BigEndian (network order).
func (c *CRC791) AddUint32(value uint32) {
	c.AddUint16(uint16(value >> 16))
	c.AddUint16(uint16(value))
}

// Sum16 calculates the checksum with the data written to c thus far.
func (c *CRC791) Sum16() uint16 {
	return FoldChecksum16(c.sum)
}

// PayloadSum16 returns the checksum resulting from adding the bytes in buff,
// which may be odd-sized, to the running checksum. c is not modified, so the
// same pseudo-header prefix sum may be reused against several payloads.
func (c *CRC791) PayloadSum16(buff []byte) uint16 {
	return FoldChecksum16(c.sum + Sum16Bits(buff))
}

// Reset zeros out the CRC791, resetting it to the initial state.
func (c *CRC791) Reset() { *c = CRC791{} }

// PseudoHeaderChecksum16 computes a transport checksum covered by an IP
// pseudo-header as a single accumulation over the pseudo-header fields and the
// payload before the final fold. Computing the two parts as independently
// completed checksums gives a wrong result. src and dst are 4-byte IPv4 or
// 16-byte IPv6 addresses; length is the transport length field.
func PseudoHeaderChecksum16(src, dst []byte, proto IPProto, length uint16, payload []byte) uint16 {
	var crc CRC791
	crc.Write(src)
	crc.Write(dst)
	crc.AddUint16(uint16(proto))
	crc.AddUint16(length)
	return crc.PayloadSum16(payload)
}

// NeverZeroChecksum ensures that the given checksum is not zero, by returning 0xffff instead.
// UDP uses an all-zeros field to mean "no checksum computed".
func NeverZeroChecksum(sum16 uint16) uint16 {
	// 0x0000 and 0xffff are the same number in ones' complement math
	if sum16 == 0 {
		return 0xffff
	}
	return sum16
}
