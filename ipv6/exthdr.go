package ipv6

import (
	"errors"

	"github.com/pedoc/pnet"
)

var (
	errShortExt  = errors.New("ipv6: short extension header")
	errChainLoop = errors.New("ipv6: extension chain too long")
)

// maxChainHeaders bounds the walk so a crafted packet cannot spin the
// iterator; real chains carry each extension header at most once.
const maxChainHeaders = 16

// ExtHeader is one link of the extension header chain: the protocol that
// named it, its raw bytes (next-header and length octets included) and the
// protocol of whatever follows it. Raw aliases the packet buffer.
type ExtHeader struct {
	Proto pnet.IPProto
	Raw   []byte
	Next  pnet.IPProto
}

// Options parses the header's option region when the header is a hop-by-hop
// or destination options header; other headers have no option region.
func (eh ExtHeader) Options() OptionRegion {
	switch eh.Proto {
	case pnet.IPProtoHopByHop, pnet.IPProtoIPv6DestOpts:
		return OptionRegion{buf: eh.Raw[2:], ok: true}
	}
	return OptionRegion{}
}

// Mobility reinterprets the header as a mobility header.
func (eh ExtHeader) Mobility() (MobilityFrame, error) {
	if eh.Proto != pnet.IPProtoMobility {
		return MobilityFrame{}, pnet.ErrInvalidField
	}
	return NewMobilityFrame(eh.Raw)
}

// OptionRegion is the raw option bytes of a hop-by-hop or destination options
// header, ready for [ParseOptions].
type OptionRegion struct {
	buf []byte
	ok  bool
}

// Present reports whether the header carried an option region.
func (r OptionRegion) Present() bool { return r.ok }

// Bytes returns the raw option bytes.
func (r OptionRegion) Bytes() []byte { return r.buf }

// ChainIter walks an IPv6 extension header chain. Each extension header
// carries the type of the next one, forming a linked sequence terminated by
// a transport protocol or [pnet.IPProtoNoNextHeader].
//
// Iteration is zero-copy and terminates after at most [maxChainHeaders]
// links or on the first structural error, retrievable via [ChainIter.Err].
type ChainIter struct {
	proto pnet.IPProto
	rem   []byte
	count int
	err   error
}

// NewChainIter returns an iterator over the extension headers of a payload
// whose first header is named by proto, usually the fixed header's
// next-header field.
func NewChainIter(proto pnet.IPProto, payload []byte) ChainIter {
	return ChainIter{proto: proto, rem: payload}
}

// Next returns the next extension header in the chain. ok is false when the
// chain is exhausted, either because a non-extension protocol was reached or
// because the chain is malformed; check [ChainIter.Err] to distinguish.
func (it *ChainIter) Next() (eh ExtHeader, ok bool) {
	if it.err != nil || !it.proto.IsIPv6Extension() {
		return ExtHeader{}, false
	}
	if it.count >= maxChainHeaders {
		it.err = errChainLoop
		return ExtHeader{}, false
	}
	hl, err := extHeaderLength(it.proto, it.rem)
	if err != nil {
		it.err = err
		return ExtHeader{}, false
	}
	eh = ExtHeader{
		Proto: it.proto,
		Raw:   it.rem[:hl],
		Next:  pnet.IPProto(it.rem[0]),
	}
	it.proto = eh.Next
	it.rem = it.rem[hl:]
	it.count++
	return eh, true
}

// Final returns the first non-extension protocol reached and the bytes
// following the last extension header. Valid once Next has returned false
// with a nil Err.
func (it *ChainIter) Final() (proto pnet.IPProto, payload []byte) {
	return it.proto, it.rem
}

// Err returns the structural error that stopped iteration, if any.
func (it *ChainIter) Err() error { return it.err }

// extHeaderLength returns the total byte length of the extension header of
// type proto at the start of buf.
func extHeaderLength(proto pnet.IPProto, buf []byte) (int, error) {
	if proto == pnet.IPProtoIPv6Fragment {
		if len(buf) < 8 {
			return 0, errShortExt
		}
		return 8, nil
	}
	if len(buf) < 2 {
		return 0, errShortExt
	}
	var hl int
	if proto == pnet.IPProtoAH {
		// AH counts 4-byte units minus two, unlike every other extension.
		hl = (int(buf[1]) + 2) * 4
	} else {
		hl = (int(buf[1]) + 1) * 8
	}
	if hl > len(buf) {
		return 0, errShortExt
	}
	return hl, nil
}
