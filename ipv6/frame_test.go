package ipv6

import (
	"math/rand"
	"testing"

	"github.com/pedoc/pnet"
)

func TestFrame(t *testing.T) {
	var buf [512]byte
	i6frm, err := NewFrame(buf[:])
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	const wantVersion = 6
	v := pnet.NewValidator(0)
	for i := 0; i < 100; i++ {
		wantTClass := uint8(rng.Intn(256))
		wantFlow := rng.Uint32() & 0x000f_ffff
		i6frm.SetVersionTrafficAndFlow(wantVersion, wantTClass, wantFlow)
		wantPayloadLen := uint16(rng.Intn(len(buf) - sizeHeader))
		i6frm.SetPayloadLength(wantPayloadLen)
		wantNext := pnet.IPProto(rng.Intn(256))
		i6frm.SetNextHeader(wantNext)
		wantHop := uint8(rng.Intn(256))
		i6frm.SetHopLimit(wantHop)
		src := i6frm.SourceAddr()
		rng.Read(src[:])
		wantSrc := *src
		dst := i6frm.DestinationAddr()
		rng.Read(dst[:])
		wantDst := *dst

		i6frm.ValidateSize(v)
		if v.Err() != nil {
			t.Error(v.Err())
			v.ResetErr()
		}

		payload := i6frm.Payload()
		if len(payload) != int(wantPayloadLen) {
			t.Errorf("payload %d bytes, want %d", len(payload), wantPayloadLen)
		}
		if len(payload) > 0 && &payload[0] != &buf[sizeHeader] {
			t.Error("payload does not alias buffer after fixed header")
		}

		version, tclass, flow := i6frm.VersionTrafficAndFlow()
		if version != wantVersion || tclass != wantTClass || flow != wantFlow {
			t.Errorf("version,tclass,flow %d,%d,%#x want %d,%d,%#x",
				version, tclass, flow, wantVersion, wantTClass, wantFlow)
		}
		if got := i6frm.PayloadLength(); got != wantPayloadLen {
			t.Errorf("payload length %d, want %d", got, wantPayloadLen)
		}
		if got := i6frm.NextHeader(); got != wantNext {
			t.Errorf("next header %d, want %d", got, wantNext)
		}
		if got := i6frm.HopLimit(); got != wantHop {
			t.Errorf("hop limit %d, want %d", got, wantHop)
		}
		if *i6frm.SourceAddr() != wantSrc {
			t.Error("source address mismatch")
		}
		if *i6frm.DestinationAddr() != wantDst {
			t.Error("destination address mismatch")
		}
		if i6frm.SourceNetip().As16() != wantSrc {
			t.Error("source netip mismatch")
		}
	}
}

func TestFrameValidateSize(t *testing.T) {
	var buf [64]byte
	i6frm, _ := NewFrame(buf[:])
	v := pnet.NewValidator(0)
	i6frm.SetPayloadLength(uint16(len(buf) - sizeHeader))
	i6frm.ValidateSize(v)
	if v.HasError() {
		t.Errorf("exact fit rejected: %v", v.Err())
	}
	i6frm.SetPayloadLength(uint16(len(buf) - sizeHeader + 1))
	i6frm.ValidateSize(v)
	if !v.HasError() {
		t.Error("payload beyond buffer accepted")
	}
	if _, err := NewFrame(buf[:sizeHeader-1]); err == nil {
		t.Error("short buffer accepted")
	}
}

func TestCRCWritePseudo(t *testing.T) {
	var buf [sizeHeader + 8]byte
	i6frm, _ := NewFrame(buf[:])
	i6frm.SetVersionTrafficAndFlow(6, 0, 0)
	i6frm.SetPayloadLength(8)
	i6frm.SetNextHeader(pnet.IPProtoUDP)
	src := i6frm.SourceAddr()
	src[15] = 1
	dst := i6frm.DestinationAddr()
	dst[15] = 2

	var crc, manual pnet.CRC791
	i6frm.CRCWritePseudo(&crc)
	manual.Write(src[:])
	manual.Write(dst[:])
	manual.AddUint32(uint32(i6frm.PayloadLength()))
	manual.AddUint32(uint32(pnet.IPProtoUDP))
	if crc.Sum16() != manual.Sum16() {
		t.Errorf("pseudo-header sum %#04x, manual %#04x", crc.Sum16(), manual.Sum16())
	}
}
