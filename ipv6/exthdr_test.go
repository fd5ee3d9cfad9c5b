package ipv6

import (
	"testing"

	"github.com/pedoc/pnet"
)

// appendOptHeader writes a minimal 8-byte hop-by-hop or destination options
// header padded with PadN, returning the extended buffer.
func appendOptHeader(buf []byte, next pnet.IPProto) []byte {
	return append(buf, uint8(next), 0, uint8(OptKindPadN), 4, 0, 0, 0, 0)
}

func TestHeaderChain(t *testing.T) {
	// hop-by-hop, fragment, AH, destination options, then TCP payload.
	var ext []byte
	ext = appendOptHeader(ext, pnet.IPProtoIPv6Fragment)
	ext = append(ext, uint8(pnet.IPProtoAH), 0, 0x12, 0x39, 0xde, 0xad, 0xbe, 0xef)
	// AH length counts 4-byte units minus two: 1 means 12 bytes total.
	ext = append(ext, uint8(pnet.IPProtoIPv6DestOpts), 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	ext = appendOptHeader(ext, pnet.IPProtoTCP)
	payload := []byte("segment")
	ext = append(ext, payload...)

	var buf [sizeHeader + 128]byte
	i6frm, _ := NewFrame(buf[:sizeHeader+len(ext)])
	i6frm.SetVersionTrafficAndFlow(6, 0, 0)
	i6frm.SetPayloadLength(uint16(len(ext)))
	i6frm.SetNextHeader(pnet.IPProtoHopByHop)
	copy(i6frm.Payload(), ext)

	it := i6frm.HeaderChain()
	wantProtos := []pnet.IPProto{
		pnet.IPProtoHopByHop,
		pnet.IPProtoIPv6Fragment,
		pnet.IPProtoAH,
		pnet.IPProtoIPv6DestOpts,
	}
	wantLens := []int{8, 8, 12, 8}
	var got []ExtHeader
	for {
		eh, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, eh)
	}
	if it.Err() != nil {
		t.Fatal(it.Err())
	}
	if len(got) != len(wantProtos) {
		t.Fatalf("chain yielded %d headers, want %d", len(got), len(wantProtos))
	}
	for i, eh := range got {
		if eh.Proto != wantProtos[i] {
			t.Errorf("header %d proto %v, want %v", i, eh.Proto, wantProtos[i])
		}
		if len(eh.Raw) != wantLens[i] {
			t.Errorf("header %d length %d, want %d", i, len(eh.Raw), wantLens[i])
		}
	}
	if got[1].Raw[4] != 0xde {
		t.Error("fragment identification bytes not aliased")
	}
	opts := got[0].Options()
	if !opts.Present() {
		t.Fatal("hop-by-hop should expose an option region")
	}
	parsed := ParseOptions(opts.Bytes())
	if !parsed.Valid() || parsed.Len() != 1 {
		t.Fatalf("hop-by-hop options valid=%v len=%d", parsed.Valid(), parsed.Len())
	}
	if _, ok := parsed.At(0).(OptionPadN); !ok {
		t.Errorf("hop-by-hop option is %T", parsed.At(0))
	}
	if got[1].Options().Present() {
		t.Error("fragment header has no option region")
	}

	proto, rest := it.Final()
	if proto != pnet.IPProtoTCP {
		t.Errorf("final proto %v, want TCP", proto)
	}
	if string(rest) != string(payload) {
		t.Errorf("final payload %q", rest)
	}
	if len(rest) > 0 && &rest[0] != &i6frm.Payload()[len(ext)-len(payload)] {
		t.Error("final payload does not alias the packet")
	}
}

func TestHeaderChainNoExtensions(t *testing.T) {
	it := NewChainIter(pnet.IPProtoUDP, []byte{1, 2, 3})
	if _, ok := it.Next(); ok {
		t.Fatal("transport protocol yielded an extension header")
	}
	if it.Err() != nil {
		t.Fatal(it.Err())
	}
	proto, rest := it.Final()
	if proto != pnet.IPProtoUDP || len(rest) != 3 {
		t.Errorf("final %v %d bytes", proto, len(rest))
	}
}

func TestHeaderChainLoop(t *testing.T) {
	var ext []byte
	for i := 0; i <= maxChainHeaders; i++ {
		ext = appendOptHeader(ext, pnet.IPProtoHopByHop)
	}
	it := NewChainIter(pnet.IPProtoHopByHop, ext)
	n := 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		n++
	}
	if it.Err() != errChainLoop {
		t.Fatalf("err=%v after %d headers", it.Err(), n)
	}
	if n != maxChainHeaders {
		t.Errorf("yielded %d headers before stopping, want %d", n, maxChainHeaders)
	}
}

func TestHeaderChainTruncated(t *testing.T) {
	// Declared length runs past the buffer.
	it := NewChainIter(pnet.IPProtoHopByHop, []byte{uint8(pnet.IPProtoTCP), 2, 0, 0, 0, 0, 0, 0})
	if _, ok := it.Next(); ok {
		t.Fatal("truncated header yielded")
	}
	if it.Err() != errShortExt {
		t.Fatalf("err=%v", it.Err())
	}
	// Fragment headers are fixed at 8 bytes.
	it = NewChainIter(pnet.IPProtoIPv6Fragment, []byte{uint8(pnet.IPProtoTCP), 0, 0})
	if _, ok := it.Next(); ok || it.Err() != errShortExt {
		t.Fatalf("ok=%v err=%v", ok, it.Err())
	}
}
