// Package dns provides a view over DNS message headers, compression-aware
// domain name coding and resource records with typed record data dispatch.
// See [RFC1035].
//
// [RFC1035]: https://tools.ietf.org/html/rfc1035
package dns

import (
	"errors"
	"strconv"

	"github.com/pedoc/pnet"
)

// Global parameters.
const (
	// SizeHeader is the length (in bytes) of a DNS header.
	// A header is comprised of 6 uint16s and no padding.
	SizeHeader = 6 * 2
	// ServerPort is the TCP and UDP port name servers listen on.
	ServerPort = 53
	// MaxSizeUDP bounds messages carried by UDP (not counting the IP or UDP
	// headers). Longer messages are truncated and the TC bit set.
	MaxSizeUDP = 512
)

var (
	errShortFrame   = errors.New("dns: short frame")
	errNameTooLong  = errors.New("dns: name exceeds maximum length")
	errLabelLen     = errors.New("dns: label length exceeds remaining buffer")
	errCantAddLabel = errors.New("dns: long/empty/zterm/dotted label or no space")
	errBaseLen      = errors.New("dns: insufficient data for base length type")
	errReserved     = errors.New("dns: label prefix is reserved")
	errTooManyPtr   = errors.New("dns: too many compression pointers")
	errInvalidPtr   = errors.New("dns: invalid compression pointer")
	errInvalidName  = errors.New("dns: invalid name")
	errResourceLen  = errors.New("dns: insufficient data for resource body")
	errEmptyName    = errors.New("dns: empty domain name")
	errTooManyRecs  = errors.New("dns: message exceeds decode limits")
	errRDataLen     = errors.New("dns: record data length invalid for type")
)

// NewFrame returns a new Frame with data set to buf.
// An error is returned if the buffer size is smaller than 12.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < SizeHeader {
		return Frame{}, errShortFrame
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of a DNS message header
// and provides methods for manipulating, validating and
// retrieving fields. The sections following the header are decoded with
// [Message.Decode] since names make their layout data-dependent.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (frm Frame) RawData() []byte { return frm.buf }

// TxID returns the transaction ID copied by servers into their replies.
func (frm Frame) TxID() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[0:2])
}

// SetTxID sets the transaction ID. See [Frame.TxID].
func (frm Frame) SetTxID(txid uint16) {
	pnet.BigEndian.PutUint16(frm.buf[0:2], txid)
}

// Flags returns the second header word with QR, opcode, AA, TC, RD, RA and RCode.
func (frm Frame) Flags() HeaderFlags {
	return HeaderFlags(pnet.BigEndian.Uint16(frm.buf[2:4]))
}

// SetFlags sets the header flags word. See [HeaderFlags].
func (frm Frame) SetFlags(flags HeaderFlags) {
	pnet.BigEndian.PutUint16(frm.buf[2:4], uint16(flags))
}

// QDCount returns number of entries in the question section.
func (frm Frame) QDCount() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[4:6])
}

// SetQDCount sets the question count. See [Frame.QDCount].
func (frm Frame) SetQDCount(qdCount uint16) {
	pnet.BigEndian.PutUint16(frm.buf[4:6], qdCount)
}

// ANCount returns number of resource records in the answer section.
func (frm Frame) ANCount() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[6:8])
}

// SetANCount sets the answer count. See [Frame.ANCount].
func (frm Frame) SetANCount(anCount uint16) {
	pnet.BigEndian.PutUint16(frm.buf[6:8], anCount)
}

// NSCount returns number of name server records in the authority section.
func (frm Frame) NSCount() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[8:10])
}

// SetNSCount sets the authority count. See [Frame.NSCount].
func (frm Frame) SetNSCount(nsCount uint16) {
	pnet.BigEndian.PutUint16(frm.buf[8:10], nsCount)
}

// ARCount returns number of resource records in the additional section.
func (frm Frame) ARCount() uint16 {
	return pnet.BigEndian.Uint16(frm.buf[10:12])
}

// SetARCount sets the additional count. See [Frame.ARCount].
func (frm Frame) SetARCount(arCount uint16) {
	pnet.BigEndian.PutUint16(frm.buf[10:12], arCount)
}

// ValidateSize checks the buffer against the fixed header size. It adds an
// error to v on finding an inconsistency.
func (frm Frame) ValidateSize(v *pnet.Validator) {
	if len(frm.buf) < SizeHeader {
		v.AddError(errShortFrame)
	}
}

// HeaderFlags gathers the flags in bits 16..31 of the header.
type HeaderFlags uint16

// NewClientHeaderFlags creates the header flags for a client request.
func NewClientHeaderFlags(op OpCode, enableRecursion bool) HeaderFlags {
	f := HeaderFlags(op&0b1111) << 11
	if enableRecursion {
		f |= 1 << 8
	}
	return f
}

// IsResponse returns QR bit which specifies whether this message is a query (0), or a response (1).
func (flags HeaderFlags) IsResponse() bool { return flags&(1<<15) != 0 }

// OpCode returns the 4-bit opcode.
func (flags HeaderFlags) OpCode() OpCode { return OpCode(flags>>11) & 0b1111 }

// IsAuthoritativeAnswer returns AA bit which specifies that the responding name server is an authority for the domain name in question section.
func (flags HeaderFlags) IsAuthoritativeAnswer() bool { return flags&(1<<10) != 0 }

// IsTruncated returns TC bit which specifies that this message was truncated due to length greater than that permitted on the transmission channel.
func (flags HeaderFlags) IsTruncated() bool { return flags&(1<<9) != 0 }

// IsRecursionDesired returns RD bit which specifies whether recursive query support is desired by the client. Is optionally set by client.
func (flags HeaderFlags) IsRecursionDesired() bool { return flags&(1<<8) != 0 }

// IsRecursionAvailable returns RA bit which specifies whether recursive query support is available by the server.
func (flags HeaderFlags) IsRecursionAvailable() bool { return flags&(1<<7) != 0 }

// ResponseCode returns the 4-bit response code set as part of responses.
func (flags HeaderFlags) ResponseCode() RCode { return RCode(flags & 0b1111) }

func (flags HeaderFlags) String() string {
	buf := make([]byte, 0, 24)
	writeBit := func(b bool, s string) {
		if b {
			buf = append(buf, s...)
			buf = append(buf, ' ')
		}
	}
	writeBit(flags.IsResponse(), "QR")
	writeBit(flags.IsAuthoritativeAnswer(), "AA")
	writeBit(flags.IsTruncated(), "TC")
	writeBit(flags.IsRecursionDesired(), "RD")
	writeBit(flags.IsRecursionAvailable(), "RA")
	buf = append(buf, flags.OpCode().String()...)
	buf = append(buf, ' ')
	buf = append(buf, flags.ResponseCode().String()...)
	return string(buf)
}

// Type is a type of DNS request and response.
type Type uint16

const (
	TypeA     Type = 1  // host address
	TypeNS    Type = 2  // authoritative name server
	TypeCNAME Type = 5  // canonical name for an alias
	TypeSOA   Type = 6  // start of a zone of authority
	TypePTR   Type = 12 // domain name pointer
	TypeMX    Type = 15 // mail exchange
	TypeTXT   Type = 16 // text strings
	TypeAAAA  Type = 28 // IPv6 host address
	TypeSRV   Type = 33 // service locator
	TypeOPT   Type = 41 // EDNS0 pseudo record

	// Question-only types.
	TypeAXFR Type = 252 // zone transfer
	TypeALL  Type = 255 // all records
)

func (t Type) String() string {
	switch t {
	case TypeA:
		return "A"
	case TypeNS:
		return "NS"
	case TypeCNAME:
		return "CNAME"
	case TypeSOA:
		return "SOA"
	case TypePTR:
		return "PTR"
	case TypeMX:
		return "MX"
	case TypeTXT:
		return "TXT"
	case TypeAAAA:
		return "AAAA"
	case TypeSRV:
		return "SRV"
	case TypeOPT:
		return "OPT"
	case TypeAXFR:
		return "AXFR"
	case TypeALL:
		return "ALL"
	}
	return "TYPE" + itoa(uint16(t))
}

// A Class is a type of network.
type Class uint16

const (
	ClassINET   Class = 1 // the Internet
	ClassCSNET  Class = 2 // CSNET, obsolete
	ClassCHAOS  Class = 3 // CHAOS
	ClassHESIOD Class = 4 // Hesiod

	// Question-only class.
	ClassANY Class = 255 // any class
)

func (c Class) String() string {
	switch c {
	case ClassINET:
		return "IN"
	case ClassCSNET:
		return "CS"
	case ClassCHAOS:
		return "CH"
	case ClassHESIOD:
		return "HS"
	case ClassANY:
		return "ANY"
	}
	return "CLASS" + itoa(uint16(c))
}

// An OpCode is a DNS operation code which specifies the type of query.
type OpCode uint16

const (
	OpCodeQuery        OpCode = 0 // standard query
	OpCodeInverseQuery OpCode = 1 // inverse query
	OpCodeStatus       OpCode = 2 // server status request
)

func (op OpCode) String() string {
	switch op {
	case OpCodeQuery:
		return "QUERY"
	case OpCodeInverseQuery:
		return "IQUERY"
	case OpCodeStatus:
		return "STATUS"
	}
	return "OPCODE" + itoa(uint16(op))
}

// An RCode is a DNS response status code.
type RCode uint16

const (
	RCodeSuccess        RCode = 0 // no error condition
	RCodeFormatError    RCode = 1 // server unable to interpret the query
	RCodeServerFailure  RCode = 2 // server side problem
	RCodeNameError      RCode = 3 // authoritative: queried name does not exist
	RCodeNotImplemented RCode = 4 // query kind not supported
	RCodeRefused        RCode = 5 // refused for policy reasons
)

func (rc RCode) String() string {
	switch rc {
	case RCodeSuccess:
		return "NOERROR"
	case RCodeFormatError:
		return "FORMERR"
	case RCodeServerFailure:
		return "SERVFAIL"
	case RCodeNameError:
		return "NXDOMAIN"
	case RCodeNotImplemented:
		return "NOTIMP"
	case RCodeRefused:
		return "REFUSED"
	}
	return "RCODE" + itoa(uint16(rc))
}

func itoa(v uint16) string { return strconv.FormatUint(uint64(v), 10) }
