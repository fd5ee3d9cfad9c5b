package dns

import (
	"net/netip"

	"github.com/pedoc/pnet"
	"github.com/pedoc/pnet/tlv"
)

// RData is a typed resource record body. Concrete types are the RData*
// views of this package plus [RDataUnknown] for unregistered record types.
type RData interface {
	// RType returns the record type the body belongs to.
	RType() Type
	// appendRData appends the body in wire format. Names are written
	// uncompressed.
	appendRData([]byte) []byte
}

// An rdataDecoder reads a record body. It receives the whole message and the
// data's offset within it since several record types embed names that may be
// compressed against earlier parts of the message.
type rdataDecoder func(msg []byte, off, length uint16) (RData, error)

var rdataTypes = tlv.NewTypeRegistry[Type, rdataDecoder]("dns rdata")

func init() {
	rdataTypes.Register(TypeA, decodeRDataA)
	rdataTypes.Register(TypeAAAA, decodeRDataAAAA)
	rdataTypes.Register(TypeNS, decodeRDataName(TypeNS))
	rdataTypes.Register(TypeCNAME, decodeRDataName(TypeCNAME))
	rdataTypes.Register(TypePTR, decodeRDataName(TypePTR))
	rdataTypes.Register(TypeMX, decodeRDataMX)
	rdataTypes.Register(TypeTXT, decodeRDataTXT)
	rdataTypes.Freeze()
}

func decodeRData(t Type, msg []byte, off, length uint16) (RData, error) {
	dec, ok := rdataTypes.Lookup(t)
	if !ok {
		return RDataUnknown{Type_: t, Data: append([]byte{}, msg[off:off+length]...)}, nil
	}
	return dec(msg, off, length)
}

// RDataA is a host address record body.
type RDataA struct {
	Addr [4]byte
}

// RType implements [RData].
func (RDataA) RType() Type { return TypeA }

// Netip returns the address as a netip.Addr.
func (rd RDataA) Netip() netip.Addr { return netip.AddrFrom4(rd.Addr) }

func (rd RDataA) appendRData(b []byte) []byte { return append(b, rd.Addr[:]...) }

func decodeRDataA(msg []byte, off, length uint16) (RData, error) {
	if length != 4 {
		return nil, errRDataLen
	}
	return RDataA{Addr: [4]byte(msg[off : off+4])}, nil
}

// RDataAAAA is an IPv6 host address record body.
type RDataAAAA struct {
	Addr [16]byte
}

// RType implements [RData].
func (RDataAAAA) RType() Type { return TypeAAAA }

// Netip returns the address as a netip.Addr.
func (rd RDataAAAA) Netip() netip.Addr { return netip.AddrFrom16(rd.Addr) }

func (rd RDataAAAA) appendRData(b []byte) []byte { return append(b, rd.Addr[:]...) }

func decodeRDataAAAA(msg []byte, off, length uint16) (RData, error) {
	if length != 16 {
		return nil, errRDataLen
	}
	return RDataAAAA{Addr: [16]byte(msg[off : off+16])}, nil
}

// RDataName is the body of the record types that carry a single domain name:
// NS, CNAME and PTR.
type RDataName struct {
	Type_ Type
	Name  Name
}

// RType implements [RData].
func (rd RDataName) RType() Type { return rd.Type_ }

func (rd RDataName) appendRData(b []byte) []byte {
	b, _ = rd.Name.AppendTo(b)
	return b
}

func decodeRDataName(t Type) rdataDecoder {
	return func(msg []byte, off, length uint16) (RData, error) {
		rd := RDataName{Type_: t}
		end, err := rd.Name.Decode(msg, off)
		if err != nil {
			return nil, err
		}
		if end != off+length {
			return nil, errRDataLen
		}
		return rd, nil
	}
}

// RDataMX is a mail exchange record body.
type RDataMX struct {
	Preference uint16
	Exchange   Name
}

// RType implements [RData].
func (RDataMX) RType() Type { return TypeMX }

func (rd RDataMX) appendRData(b []byte) []byte {
	b = pnet.BigEndian.AppendUint16(b, rd.Preference)
	b, _ = rd.Exchange.AppendTo(b)
	return b
}

func decodeRDataMX(msg []byte, off, length uint16) (RData, error) {
	if length < 3 {
		return nil, errRDataLen
	}
	rd := RDataMX{Preference: pnet.BigEndian.Uint16(msg[off:])}
	end, err := rd.Exchange.Decode(msg, off+2)
	if err != nil {
		return nil, err
	}
	if end != off+length {
		return nil, errRDataLen
	}
	return rd, nil
}

// RDataTXT is a text record body: one or more length-prefixed character
// strings.
type RDataTXT struct {
	Strings [][]byte
}

// RType implements [RData].
func (RDataTXT) RType() Type { return TypeTXT }

func (rd RDataTXT) appendRData(b []byte) []byte {
	for _, s := range rd.Strings {
		b = append(b, byte(len(s)))
		b = append(b, s...)
	}
	return b
}

func decodeRDataTXT(msg []byte, off, length uint16) (RData, error) {
	var rd RDataTXT
	end := off + length
	for off < end {
		sl := uint16(msg[off])
		off++
		if off+sl > end {
			return nil, errRDataLen
		}
		rd.Strings = append(rd.Strings, append([]byte{}, msg[off:off+sl]...))
		off += sl
	}
	return rd, nil
}

// RDataUnknown preserves the raw body of record types this build does not
// understand so they survive a decode/encode round trip.
type RDataUnknown struct {
	Type_ Type
	Data  []byte
}

// RType implements [RData].
func (rd RDataUnknown) RType() Type { return rd.Type_ }

func (rd RDataUnknown) appendRData(b []byte) []byte { return append(b, rd.Data...) }

// Body returns the typed view of the record data, decoded when the record
// was, or [RDataUnknown] for unregistered types.
func (r *Resource) Body() RData { return r.body }
