package tcp

import (
	"errors"

	"github.com/pedoc/pnet"
	"github.com/pedoc/pnet/tlv"
)

// OptionKind is the TCP option type octet.
type OptionKind uint8

// TCP option kinds.
const (
	OptKindEnd           OptionKind = 0  // end of option list
	OptKindNoOp          OptionKind = 1  // no-operation
	OptKindMSS           OptionKind = 2  // maximum segment size
	OptKindWindowScale   OptionKind = 3  // window scale
	OptKindSACKPermitted OptionKind = 4  // SACK permitted
	OptKindSACK          OptionKind = 5  // SACK
	OptKindTimestamps    OptionKind = 8  // timestamps
	OptKindMD5Signature  OptionKind = 19 // MD5 signature (obsoleted by TCP-AO)
)

// Option is a parsed TCP header option.
type Option interface {
	tlv.Option
	tcpOption()
}

var scheme = tlv.NewScheme[Option](tlv.SchemeConfig{
	Name:                 "tcp",
	EndKind:              int(OptKindEnd),
	PadKind:              int(OptKindNoOp),
	LengthIncludesHeader: true,
})

func init() {
	scheme.RegisterSingleton(uint8(OptKindNoOp), Option(OptionNoOp{}))
	scheme.RegisterSingleton(uint8(OptKindSACKPermitted), Option(OptionSACKPermitted{}))
	scheme.Register(uint8(OptKindMSS), decodeMSS)
	scheme.Register(uint8(OptKindWindowScale), decodeWindowScale)
	scheme.Register(uint8(OptKindSACK), decodeSACK)
	scheme.Register(uint8(OptKindTimestamps), decodeTimestamps)
	scheme.Register(uint8(OptKindMD5Signature), decodeMD5Signature)
	scheme.RegisterUnknown(decodeUnknown)
	scheme.Freeze()
}

// Scheme returns the TCP option registry.
func Scheme() *tlv.Scheme[Option] { return scheme }

// ParseOptions parses the TCP option region in buf, best-effort.
func ParseOptions(buf []byte) tlv.Options[Option] { return scheme.Parse(buf) }

// Options parses the frame's option region. Be sure to call
// [Frame.ValidateSize] beforehand to avoid panics on a bad data offset.
func (tfrm Frame) Options() tlv.Options[Option] {
	return ParseOptions(tfrm.OptionBytes())
}

var errOptionLength = errors.New("tcp: bad option length")

// OptionNoOp is the single-byte no-operation option used for alignment
// padding between options.
type OptionNoOp struct{}

func (OptionNoOp) Kind() uint8             { return uint8(OptKindNoOp) }
func (OptionNoOp) Length() int             { return 1 }
func (OptionNoOp) AppearsAtMostOnce() bool { return false }
func (OptionNoOp) tcpOption()              {}

func (OptionNoOp) Encode(dst []byte) int {
	dst[0] = uint8(OptKindNoOp)
	return 1
}

// OptionSACKPermitted signals on SYN that the sender supports selective
// acknowledgment. See RFC 2018.
type OptionSACKPermitted struct{}

func (OptionSACKPermitted) Kind() uint8             { return uint8(OptKindSACKPermitted) }
func (OptionSACKPermitted) Length() int             { return 2 }
func (OptionSACKPermitted) AppearsAtMostOnce() bool { return true }
func (OptionSACKPermitted) tcpOption()              {}

func (OptionSACKPermitted) Encode(dst []byte) int {
	dst[0] = uint8(OptKindSACKPermitted)
	dst[1] = 2
	return 2
}

// OptionMSS advertises the maximum segment size the sender is willing to
// receive. Sent only on SYN segments.
type OptionMSS struct {
	MSS uint16
}

func (OptionMSS) Kind() uint8             { return uint8(OptKindMSS) }
func (OptionMSS) Length() int             { return 4 }
func (OptionMSS) AppearsAtMostOnce() bool { return true }
func (OptionMSS) tcpOption()              {}

func (o OptionMSS) Encode(dst []byte) int {
	dst[0] = uint8(OptKindMSS)
	dst[1] = 4
	pnet.BigEndian.PutUint16(dst[2:], o.MSS)
	return 4
}

func decodeMSS(_ uint8, value []byte) (Option, error) {
	if len(value) != 2 {
		return nil, errOptionLength
	}
	return OptionMSS{MSS: pnet.BigEndian.Uint16(value)}, nil
}

// OptionWindowScale carries the shift count applied to the window size field.
// See RFC 7323.
type OptionWindowScale struct {
	Shift uint8
}

func (OptionWindowScale) Kind() uint8             { return uint8(OptKindWindowScale) }
func (OptionWindowScale) Length() int             { return 3 }
func (OptionWindowScale) AppearsAtMostOnce() bool { return true }
func (OptionWindowScale) tcpOption()              {}

func (o OptionWindowScale) Encode(dst []byte) int {
	dst[0] = uint8(OptKindWindowScale)
	dst[1] = 3
	dst[2] = o.Shift
	return 3
}

func decodeWindowScale(_ uint8, value []byte) (Option, error) {
	if len(value) != 1 {
		return nil, errOptionLength
	}
	return OptionWindowScale{Shift: value[0]}, nil
}

// SACKBlock is one contiguous received block reported by a SACK option.
type SACKBlock struct {
	Left  uint32
	Right uint32
}

// OptionSACK reports up to four non-contiguous received blocks. See RFC 2018.
type OptionSACK struct {
	Blocks []SACKBlock
}

// NewSACKOption builds a SACK option for the outbound path. A TCP option
// holds at most 4 blocks; more is a caller bug and returns an error.
func NewSACKOption(blocks []SACKBlock) (OptionSACK, error) {
	if len(blocks) == 0 || len(blocks) > 4 {
		return OptionSACK{}, pnet.ErrInvalidField
	}
	return OptionSACK{Blocks: blocks}, nil
}

func (OptionSACK) Kind() uint8             { return uint8(OptKindSACK) }
func (o OptionSACK) Length() int           { return 2 + 8*len(o.Blocks) }
func (OptionSACK) AppearsAtMostOnce() bool { return true }
func (OptionSACK) tcpOption()              {}

func (o OptionSACK) Encode(dst []byte) int {
	dst[0] = uint8(OptKindSACK)
	dst[1] = uint8(o.Length())
	off := 2
	for _, blk := range o.Blocks {
		pnet.BigEndian.PutUint32(dst[off:], blk.Left)
		pnet.BigEndian.PutUint32(dst[off+4:], blk.Right)
		off += 8
	}
	return off
}

func decodeSACK(_ uint8, value []byte) (Option, error) {
	if len(value) == 0 || len(value)%8 != 0 || len(value) > 32 {
		return nil, errOptionLength
	}
	o := OptionSACK{Blocks: make([]SACKBlock, 0, len(value)/8)}
	for off := 0; off < len(value); off += 8 {
		o.Blocks = append(o.Blocks, SACKBlock{
			Left:  pnet.BigEndian.Uint32(value[off:]),
			Right: pnet.BigEndian.Uint32(value[off+4:]),
		})
	}
	return o, nil
}

// OptionTimestamps carries the timestamp value and echo reply of RFC 7323.
type OptionTimestamps struct {
	Value     uint32
	EchoReply uint32
}

func (OptionTimestamps) Kind() uint8             { return uint8(OptKindTimestamps) }
func (OptionTimestamps) Length() int             { return 10 }
func (OptionTimestamps) AppearsAtMostOnce() bool { return true }
func (OptionTimestamps) tcpOption()              {}

func (o OptionTimestamps) Encode(dst []byte) int {
	dst[0] = uint8(OptKindTimestamps)
	dst[1] = 10
	pnet.BigEndian.PutUint32(dst[2:], o.Value)
	pnet.BigEndian.PutUint32(dst[6:], o.EchoReply)
	return 10
}

func decodeTimestamps(_ uint8, value []byte) (Option, error) {
	if len(value) != 8 {
		return nil, errOptionLength
	}
	return OptionTimestamps{
		Value:     pnet.BigEndian.Uint32(value[0:]),
		EchoReply: pnet.BigEndian.Uint32(value[4:]),
	}, nil
}

// OptionMD5Signature carries the 16-byte MD5 digest of RFC 2385, used by BGP
// session protection.
type OptionMD5Signature struct {
	Digest [16]byte
}

func (OptionMD5Signature) Kind() uint8             { return uint8(OptKindMD5Signature) }
func (OptionMD5Signature) Length() int             { return 18 }
func (OptionMD5Signature) AppearsAtMostOnce() bool { return true }
func (OptionMD5Signature) tcpOption()              {}

func (o OptionMD5Signature) Encode(dst []byte) int {
	dst[0] = uint8(OptKindMD5Signature)
	dst[1] = 18
	copy(dst[2:18], o.Digest[:])
	return 18
}

func decodeMD5Signature(_ uint8, value []byte) (Option, error) {
	if len(value) != 16 {
		return nil, errOptionLength
	}
	return OptionMD5Signature{Digest: [16]byte(value)}, nil
}

// OptionUnknown preserves the raw bytes of option kinds this build does not
// understand so they survive a decode/encode round trip.
type OptionUnknown struct {
	OptKind uint8
	Data    []byte
}

func (o OptionUnknown) Kind() uint8           { return o.OptKind }
func (o OptionUnknown) Length() int           { return 2 + len(o.Data) }
func (OptionUnknown) AppearsAtMostOnce() bool { return false }
func (OptionUnknown) tcpOption()              {}

func (o OptionUnknown) Encode(dst []byte) int {
	dst[0] = o.OptKind
	dst[1] = uint8(o.Length())
	copy(dst[2:], o.Data)
	return o.Length()
}

func decodeUnknown(kind uint8, value []byte) (Option, error) {
	return OptionUnknown{OptKind: kind, Data: value}, nil
}
