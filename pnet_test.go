package pnet_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/pedoc/pnet"
	"github.com/pedoc/pnet/ethernet"
	"github.com/pedoc/pnet/ipv4"
	"github.com/pedoc/pnet/tcp"
)

// appendIPv4TCPPacket assembles an ethernet/IPv4/TCP packet with random
// addresses and payload, checksums computed, and returns the extended slice.
func appendIPv4TCPPacket(dst []byte, rng *rand.Rand, payloadLen int) []byte {
	const ethLen = 14
	const ipLen = 20
	tcpLen := 20 + 4*rng.Intn(3) // 0, 4 or 8 bytes of options
	total := ethLen + ipLen + tcpLen + payloadLen
	off := len(dst)
	dst = append(dst, make([]byte, total)...)
	buf := dst[off:]
	rng.Read(buf[ethLen+ipLen+tcpLen:])

	efrm, _ := ethernet.NewFrame(buf)
	rng.Read(efrm.DestinationHardwareAddr()[:])
	rng.Read(efrm.SourceHardwareAddr()[:])
	efrm.SetEtherType(pnet.EtherTypeIPv4)

	ifrm, _ := ipv4.NewFrame(efrm.Payload())
	ifrm.SetVersionAndIHL(4, ipLen/4)
	ifrm.SetToS(0)
	ifrm.SetTotalLength(uint16(ipLen + tcpLen + payloadLen))
	ifrm.SetID(uint16(rng.Intn(1 << 16)))
	ifrm.SetFlags(ipv4.FlagDontFragment)
	ifrm.SetTTL(64)
	ifrm.SetProtocol(pnet.IPProtoTCP)
	rng.Read(ifrm.SourceAddr()[:])
	rng.Read(ifrm.DestinationAddr()[:])
	ifrm.SetCRC(ifrm.CalculateHeaderCRC())

	tfrm, _ := tcp.NewFrame(ifrm.Payload())
	tfrm.SetSourcePort(uint16(1 + rng.Intn(1<<16-1)))
	tfrm.SetDestinationPort(uint16(1 + rng.Intn(1<<16-1)))
	tfrm.SetSeq(rng.Uint32())
	tfrm.SetAck(rng.Uint32())
	tfrm.SetOffsetAndFlags(uint8(tcpLen/4), tcp.FlagACK)
	tfrm.SetWindowSize(uint16(rng.Intn(1 << 16)))
	for i := range tfrm.OptionBytes() {
		tfrm.OptionBytes()[i] = uint8(tcp.OptKindNoOp)
	}
	var crc pnet.CRC791
	ifrm.CRCWriteTCPPseudo(&crc)
	tfrm.SetCRC(tfrm.CalculateIPv4CRC(&crc))
	return dst
}

func TestTCPPacketMove(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var src, dst []byte
	for i := 0; i < 256; i++ {
		src = appendIPv4TCPPacket(src[:0], rng, rng.Intn(256))
		dst = append(dst[:0], make([]byte, len(src))...)
		testMoveTCPPacket(t, src, dst)
		if !bytes.Equal(src, dst) {
			t.Fatal("mismatching data")
		}
	}
}

// testMoveTCPPacket copies src into dst field by field through the frame
// views, checking headers land at the same offsets.
func testMoveTCPPacket(t *testing.T, src, dst []byte) {
	if len(src) != len(dst) {
		panic("expect src and dst same length")
	}
	efrm, err := ethernet.NewFrame(src)
	if err != nil {
		t.Fatal(err)
	}
	ifrm, err := ipv4.NewFrame(efrm.Payload())
	if err != nil {
		t.Fatal(err)
	}
	tfrm, err := tcp.NewFrame(ifrm.Payload())
	if err != nil {
		t.Fatal(err)
	}

	efrm2, _ := ethernet.NewFrame(dst)
	*efrm2.DestinationHardwareAddr() = *efrm.DestinationHardwareAddr()
	*efrm2.SourceHardwareAddr() = *efrm.SourceHardwareAddr()
	efrm2.SetEtherType(efrm.EtherTypeOrSize())

	ifrm2, _ := ipv4.NewFrame(efrm2.Payload())
	ifrm2.SetVersionAndIHL(ifrm.VersionAndIHL())
	ifrm2.SetToS(ifrm.ToS())
	ifrm2.SetTotalLength(ifrm.TotalLength())
	ifrm2.SetID(ifrm.ID())
	ifrm2.SetFlags(ifrm.Flags())
	ifrm2.SetTTL(ifrm.TTL())
	ifrm2.SetProtocol(ifrm.Protocol())
	ifrm2.SetCRC(ifrm.CRC())
	*ifrm2.SourceAddr() = *ifrm.SourceAddr()
	*ifrm2.DestinationAddr() = *ifrm.DestinationAddr()

	tfrm2, _ := tcp.NewFrame(ifrm2.Payload())
	tfrm2.SetSourcePort(tfrm.SourcePort())
	tfrm2.SetDestinationPort(tfrm.DestinationPort())
	tfrm2.SetSeq(tfrm.Seq())
	tfrm2.SetAck(tfrm.Ack())
	tfrm2.SetOffsetAndFlags(tfrm.OffsetAndFlags())
	tfrm2.SetWindowSize(tfrm.WindowSize())
	tfrm2.SetCRC(tfrm.CRC())
	tfrm2.SetUrgentPtr(tfrm.UrgentPtr())

	copy(ifrm2.OptionBytes(), ifrm.OptionBytes())
	copy(tfrm2.OptionBytes(), tfrm.OptionBytes())
	copy(tfrm2.Payload(), tfrm.Payload())

	elen := efrm.HeaderLength()
	if !bytes.Equal(src[:elen], dst[:elen]) {
		t.Fatalf("ethernet header mismatch\n%x\n%x", src[:elen], dst[:elen])
	}
	ilen := ifrm.HeaderLength()
	if !bytes.Equal(src[elen:elen+20], dst[elen:elen+20]) {
		t.Fatalf("IPv4 header mismatch\n%x\n%x", src[elen:elen+20], dst[elen:elen+20])
	}
	ipoptLen := len(ifrm.OptionBytes())
	if !bytes.Equal(ifrm.OptionBytes(), ifrm2.OptionBytes()) {
		t.Fatalf("IPv4 options mismatch\n%x\n%x", ifrm.OptionBytes(), ifrm2.OptionBytes())
	} else if ipoptLen > 0 && &ifrm.OptionBytes()[0] != &src[elen+20] {
		t.Fatal("IPv4 options start pointer mismatch")
	}

	tlen := tfrm.HeaderLength()
	toff := elen + ilen
	if !bytes.Equal(src[toff:toff+tlen], dst[toff:toff+tlen]) {
		t.Fatalf("TCP header mismatch\n%x\n%x", src[toff:toff+tlen], dst[toff:toff+tlen])
	}
	if !bytes.Equal(tfrm.Payload(), tfrm2.Payload()) {
		t.Fatalf("payload mismatch %d %d", len(tfrm.Payload()), len(tfrm2.Payload()))
	}
}

// Captured SYN packets with known good checksums.
var tcpPackets = [][]byte{
	{0xc0, 0xff, 0xee, 0x00, 0xde, 0xad, 0x4e, 0x8b, 0x3a, 0xf9, 0xfb, 0x6b, 0x08, 0x00, 0x45, 0x00,
		0x00, 0x3c, 0x01, 0xbe, 0x40, 0x00, 0x40, 0x06, 0xa3, 0xaa, 0xc0, 0xa8, 0x0a, 0x01, 0xc0, 0xa8,
		0x0a, 0x02, 0xe7, 0x0a, 0x00, 0x50, 0x40, 0x60, 0xd5, 0xcc, 0x00, 0x00, 0x00, 0x00, 0xa0, 0x02,
		0xfa, 0xf0, 0x62, 0xbc, 0x00, 0x00, 0x02, 0x04, 0x05, 0xb4, 0x04, 0x02, 0x08, 0x0a, 0xbb, 0xac,
		0x9b, 0xca, 0x00, 0x00, 0x00, 0x00, 0x01, 0x03, 0x03, 0x07},
	{0xc0, 0xff, 0xee, 0x00, 0xde, 0xad, 0x4e, 0x8b, 0x3a, 0xf9, 0xfb, 0x6b, 0x08, 0x00, 0x45, 0x00,
		0x00, 0x3c, 0xfa, 0xfd, 0x40, 0x00, 0x40, 0x06, 0xaa, 0x6a, 0xc0, 0xa8, 0x0a, 0x01, 0xc0, 0xa8,
		0x0a, 0x02, 0xe7, 0x0e, 0x00, 0x50, 0x9c, 0xdc, 0xfe, 0x05, 0x00, 0x00, 0x00, 0x00, 0xa0, 0x02,
		0xfa, 0xf0, 0xde, 0x02, 0x00, 0x00, 0x02, 0x04, 0x05, 0xb4, 0x04, 0x02, 0x08, 0x0a, 0xbb, 0xac,
		0x9b, 0xca, 0x00, 0x00, 0x00, 0x00, 0x01, 0x03, 0x03, 0x07},
}

func TestIPv4TCPChecksum(t *testing.T) {
	v := pnet.NewValidator(pnet.ValidateMultiErrors)
	for _, tcpPacket := range tcpPackets {
		efrm, _ := ethernet.NewFrame(tcpPacket)
		efrm.ValidateSize(v)
		ifrm, _ := ipv4.NewFrame(efrm.Payload())
		ifrm.ValidateSize(v)
		ifrm.ValidateFields(v)
		tfrm, _ := tcp.NewFrame(ifrm.Payload())
		tfrm.ValidateSize(v)
		if v.HasError() {
			t.Fatal(v.Err())
		}
		if !ifrm.VerifyHeaderCRC() {
			t.Error("IPv4 header checksum does not verify")
		}
		if got := ifrm.CalculateHeaderCRC(); got != ifrm.CRC() {
			t.Errorf("IPv4 CRC miscalculated. want %x, got %x", ifrm.CRC(), got)
		}
		var crc pnet.CRC791
		ifrm.CRCWriteTCPPseudo(&crc)
		if got := tfrm.CalculateIPv4CRC(&crc); got != tfrm.CRC() {
			t.Errorf("TCP CRC miscalculated. want %x, got %x", tfrm.CRC(), got)
		}
		opts := tfrm.Options()
		if !opts.Valid() {
			t.Error("SYN options do not parse")
		}
		mss, ok := opts.At(0).(tcp.OptionMSS)
		if !ok || mss.MSS != 1460 {
			t.Errorf("first option %+v", opts.At(0))
		}
	}
}
