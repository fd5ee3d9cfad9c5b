package ethernet

import (
	"math/rand"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pedoc/pnet"
)

func TestFrame(t *testing.T) {
	var buf [256]byte
	efrm, err := NewFrame(buf[:])
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		dst := efrm.DestinationHardwareAddr()
		rng.Read(dst[:])
		wantDst := *dst
		src := efrm.SourceHardwareAddr()
		rng.Read(src[:])
		wantSrc := *src
		efrm.SetEtherType(pnet.EtherTypeIPv4)

		if *efrm.DestinationHardwareAddr() != wantDst {
			t.Error("destination addr mismatch")
		}
		if *efrm.SourceHardwareAddr() != wantSrc {
			t.Error("source addr mismatch")
		}
		if got := efrm.EtherTypeOrSize(); got != pnet.EtherTypeIPv4 {
			t.Errorf("want ethertype %#04x, got %#04x", uint16(pnet.EtherTypeIPv4), uint16(got))
		}
		if efrm.IsVLAN() {
			t.Error("non-VLAN frame reports VLAN")
		}
		if got := efrm.HeaderLength(); got != 14 {
			t.Errorf("want header length 14, got %d", got)
		}
		if got := efrm.DestinationAddrAsUint48(); got != pnet.BigEndian.Uint48(wantDst[:]) {
			t.Errorf("uint48 destination mismatch: %#012x", got)
		}
		if got := efrm.SourceAddrAsUint48(); got != pnet.BigEndian.Uint48(wantSrc[:]) {
			t.Errorf("uint48 source mismatch: %#012x", got)
		}
		pl := efrm.Payload()
		if len(pl) != len(buf)-14 || &pl[0] != &buf[14] {
			t.Error("payload does not alias buffer after header")
		}
	}
}

func TestFrameVLAN(t *testing.T) {
	var buf [64]byte
	efrm, err := NewFrame(buf[:])
	if err != nil {
		t.Fatal(err)
	}
	efrm.SetEtherType(pnet.EtherTypeVLAN)
	// PCP 5, DEI set, VID 0x123.
	tci := uint16(5)<<13 | 1<<12 | 0x123
	pnet.BigEndian.PutUint16(buf[14:16], tci)
	pnet.BigEndian.PutUint16(buf[16:18], uint16(pnet.EtherTypeIPv6))

	if !efrm.IsVLAN() {
		t.Fatal("VLAN frame not detected")
	}
	if got := efrm.HeaderLength(); got != 18 {
		t.Errorf("want header length 18, got %d", got)
	}
	tag := efrm.VLANTag()
	if got := tag.PriorityCodePoint(); got != 5 {
		t.Errorf("want PCP 5, got %d", got)
	}
	if !tag.DropEligibleIndicator() {
		t.Error("DEI not set")
	}
	if got := tag.VLANIdentifier(); got != 0x123 {
		t.Errorf("want VID 0x123, got %#03x", got)
	}
	if got := efrm.VLANEtherType(); got != pnet.EtherTypeIPv6 {
		t.Errorf("want inner ethertype IPv6, got %#04x", uint16(got))
	}
	v := pnet.NewValidator(0)
	efrm.ValidateSize(v)
	if v.HasError() {
		t.Errorf("validate: %v", v.Err())
	}
}

// Serializing with gopacket and reading back with Frame pins the field
// offsets against an independent implementation.
func TestFrameGopacketOracle(t *testing.T) {
	eth := layers.Ethernet{
		SrcMAC:       []byte{0xc0, 0xff, 0xee, 0x00, 0x00, 0x01},
		DstMAC:       []byte{0xc0, 0xff, 0xee, 0x00, 0x00, 0x02},
		EthernetType: layers.EthernetTypeIPv4,
	}
	sb := gopacket.NewSerializeBuffer()
	payload := gopacket.Payload([]byte{0xde, 0xad, 0xbe, 0xef})
	err := gopacket.SerializeLayers(sb, gopacket.SerializeOptions{}, &eth, payload)
	if err != nil {
		t.Fatal(err)
	}
	efrm, err := NewFrame(sb.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got := efrm.SourceHardwareAddr(); string(got[:]) != string(eth.SrcMAC) {
		t.Errorf("source addr: %x", *got)
	}
	if got := efrm.DestinationHardwareAddr(); string(got[:]) != string(eth.DstMAC) {
		t.Errorf("destination addr: %x", *got)
	}
	if got := efrm.EtherTypeOrSize(); got != pnet.EtherTypeIPv4 {
		t.Errorf("ethertype: %#04x", uint16(got))
	}
	if got := efrm.Payload(); string(got) != string(payload) {
		t.Errorf("payload: % x", got)
	}
}

func TestFCS(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{14, 60, 500} {
		buf := make([]byte, n+4)
		rng.Read(buf[:n])
		PutFCS(buf, n)
		if !VerifyFCS(buf) {
			t.Fatalf("n=%d: FCS verify failed", n)
		}
		buf[n/2] ^= 0x40
		if VerifyFCS(buf) {
			t.Fatalf("n=%d: corrupted FCS verified", n)
		}
	}
	if VerifyFCS([]byte{1, 2, 3}) {
		t.Error("short buffer verified")
	}
}

func TestAppendAddr(t *testing.T) {
	got := string(AppendAddr(nil, [6]byte{0xc0, 0xff, 0xee, 0x00, 0x0a, 0x01}))
	if got != "c0:ff:ee:00:0a:01" {
		t.Errorf("AppendAddr: %q", got)
	}
	if BroadcastAddr() != [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff} {
		t.Error("broadcast address wrong")
	}
}
