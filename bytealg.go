package pnet

// ByteOrder selects the byte order of a wire integer read or write.
// Network protocols are almost always [BigEndian]; byte order is an explicit
// argument on every call so that the few little-endian formats (pcap headers,
// USB-attached NICs) are not an afterthought.
type ByteOrder uint8

const (
	BigEndian ByteOrder = iota // big-endian
	LittleEndian               // little-endian
)

func (bo ByteOrder) String() string {
	if bo == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

// Uint16 reads a 16-bit unsigned integer from the first 2 bytes of b.
func (bo ByteOrder) Uint16(b []byte) uint16 {
	_ = b[1]
	if bo == LittleEndian {
		return uint16(b[0]) | uint16(b[1])<<8
	}
	return uint16(b[1]) | uint16(b[0])<<8
}

// PutUint16 writes a 16-bit unsigned integer to the first 2 bytes of b.
func (bo ByteOrder) PutUint16(b []byte, v uint16) {
	_ = b[1]
	if bo == LittleEndian {
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		return
	}
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

// AppendUint16 appends the 2 bytes of v to b and returns the extended slice.
func (bo ByteOrder) AppendUint16(b []byte, v uint16) []byte {
	if bo == LittleEndian {
		return append(b, byte(v), byte(v>>8))
	}
	return append(b, byte(v>>8), byte(v))
}

// Uint24 reads a 24-bit unsigned integer from the first 3 bytes of b.
// 24-bit fields appear in mid-width wire formats such as DNS EDNS extended
// RCodes and IPv6 flow labels.
func (bo ByteOrder) Uint24(b []byte) uint32 {
	_ = b[2]
	if bo == LittleEndian {
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	}
	return uint32(b[2]) | uint32(b[1])<<8 | uint32(b[0])<<16
}

// PutUint24 writes the low 24 bits of v to the first 3 bytes of b.
// High bits of v are masked off so adjacent bytes are never corrupted.
func (bo ByteOrder) PutUint24(b []byte, v uint32) {
	_ = b[2]
	v &= 0xff_ffff
	if bo == LittleEndian {
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
		return
	}
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// Uint32 reads a 32-bit unsigned integer from the first 4 bytes of b.
func (bo ByteOrder) Uint32(b []byte) uint32 {
	_ = b[3]
	if bo == LittleEndian {
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}
	return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
}

// PutUint32 writes a 32-bit unsigned integer to the first 4 bytes of b.
func (bo ByteOrder) PutUint32(b []byte, v uint32) {
	_ = b[3]
	if bo == LittleEndian {
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
		b[3] = byte(v >> 24)
		return
	}
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// AppendUint32 appends the 4 bytes of v to b and returns the extended slice.
func (bo ByteOrder) AppendUint32(b []byte, v uint32) []byte {
	if bo == LittleEndian {
		return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Uint48 reads a 48-bit unsigned integer from the first 6 bytes of b.
// The width of a MAC/EUI-48 hardware address.
func (bo ByteOrder) Uint48(b []byte) uint64 {
	_ = b[5]
	if bo == LittleEndian {
		return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 |
			uint64(b[3])<<24 | uint64(b[4])<<32 | uint64(b[5])<<40
	}
	return uint64(b[5]) | uint64(b[4])<<8 | uint64(b[3])<<16 |
		uint64(b[2])<<24 | uint64(b[1])<<32 | uint64(b[0])<<40
}

// PutUint48 writes the low 48 bits of v to the first 6 bytes of b.
// High bits of v are masked off so adjacent bytes are never corrupted.
func (bo ByteOrder) PutUint48(b []byte, v uint64) {
	_ = b[5]
	v &= 0xffff_ffff_ffff
	if bo == LittleEndian {
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
		b[3] = byte(v >> 24)
		b[4] = byte(v >> 32)
		b[5] = byte(v >> 40)
		return
	}
	b[0] = byte(v >> 40)
	b[1] = byte(v >> 32)
	b[2] = byte(v >> 24)
	b[3] = byte(v >> 16)
	b[4] = byte(v >> 8)
	b[5] = byte(v)
}

// Uint64 reads a 64-bit unsigned integer from the first 8 bytes of b.
func (bo ByteOrder) Uint64(b []byte) uint64 {
	_ = b[7]
	if bo == LittleEndian {
		return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
			uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
	}
	return uint64(b[7]) | uint64(b[6])<<8 | uint64(b[5])<<16 | uint64(b[4])<<24 |
		uint64(b[3])<<32 | uint64(b[2])<<40 | uint64(b[1])<<48 | uint64(b[0])<<56
}

// PutUint64 writes a 64-bit unsigned integer to the first 8 bytes of b.
func (bo ByteOrder) PutUint64(b []byte, v uint64) {
	_ = b[7]
	if bo == LittleEndian {
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
		b[3] = byte(v >> 24)
		b[4] = byte(v >> 32)
		b[5] = byte(v >> 40)
		b[6] = byte(v >> 48)
		b[7] = byte(v >> 56)
		return
	}
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}
