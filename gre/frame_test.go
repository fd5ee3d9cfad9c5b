package gre

import (
	"testing"

	"github.com/pedoc/pnet"
)

func TestFrameAllFields(t *testing.T) {
	buf := make([]byte, 16+7)
	gfrm, err := NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	gfrm.SetFlags(FlagChecksum | FlagKey | FlagSequence)
	gfrm.SetProtocol(pnet.EtherTypeIPv4)
	if gfrm.HeaderLength() != 16 {
		t.Fatalf("header length %d, want 16", gfrm.HeaderLength())
	}
	if err = gfrm.SetKey(0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	if err = gfrm.SetSequenceNumber(0x01020304); err != nil {
		t.Fatal(err)
	}
	copy(gfrm.Payload(), "tunnel!")
	if err = gfrm.SetCRC(gfrm.CalculateCRC()); err != nil {
		t.Fatal(err)
	}

	v := pnet.NewValidator(pnet.ValidateMultiErrors)
	gfrm.ValidateFields(v)
	if v.HasError() {
		t.Fatal(v.Err())
	}
	if got := gfrm.Protocol(); got != pnet.EtherTypeIPv4 {
		t.Errorf("protocol %v", got)
	}
	if key, _ := gfrm.Key(); key != 0xdeadbeef {
		t.Errorf("key %#08x", key)
	}
	if seq, _ := gfrm.SequenceNumber(); seq != 0x01020304 {
		t.Errorf("sequence %#08x", seq)
	}
	if !gfrm.VerifyCRC() {
		t.Error("checksum does not verify")
	}
	buf[16] ^= 0x01
	if gfrm.VerifyCRC() {
		t.Error("corrupted payload verified")
	}
	buf[16] ^= 0x01

	// Key lives right after checksum+reserved1, sequence after the key.
	if pnet.BigEndian.Uint32(buf[8:12]) != 0xdeadbeef {
		t.Error("key not at offset 8")
	}
	if pnet.BigEndian.Uint32(buf[12:16]) != 0x01020304 {
		t.Error("sequence not at offset 12")
	}
}

func TestFrameSlidingOffsets(t *testing.T) {
	// Without the C and K bits the sequence number sits at offset 4.
	buf := make([]byte, 8)
	gfrm, _ := NewFrame(buf)
	gfrm.SetFlags(FlagSequence)
	if gfrm.HeaderLength() != 8 {
		t.Fatalf("header length %d, want 8", gfrm.HeaderLength())
	}
	if err := gfrm.SetSequenceNumber(77); err != nil {
		t.Fatal(err)
	}
	if pnet.BigEndian.Uint32(buf[4:8]) != 77 {
		t.Error("sequence not at offset 4")
	}
	if _, err := gfrm.CRC(); err != errNoField {
		t.Errorf("CRC err=%v", err)
	}
	if _, err := gfrm.Key(); err != errNoField {
		t.Errorf("Key err=%v", err)
	}
	if err := gfrm.SetKey(1); err != errNoField {
		t.Errorf("SetKey err=%v", err)
	}
	if !gfrm.VerifyCRC() {
		t.Error("frames without the C bit verify trivially")
	}
}

func TestValidateFields(t *testing.T) {
	buf := make([]byte, 8)
	gfrm, _ := NewFrame(buf)
	for _, tc := range []struct {
		name    string
		flags   Flags
		wantErr bool
	}{
		{name: "base", flags: 0},
		{name: "rfc2890 bits", flags: FlagChecksum | FlagKey | FlagSequence, wantErr: true}, // 16 > 8 bytes
		{name: "routing bit", flags: 0x4000, wantErr: true},
		{name: "reserved0 bits", flags: 0x0ff8 & Flags(reservedMask), wantErr: true},
		{name: "nonzero version", flags: 0x0001, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gfrm.SetFlags(tc.flags)
			v := pnet.NewValidator(0)
			gfrm.ValidateFields(v)
			if v.HasError() != tc.wantErr {
				t.Errorf("want error %v, got %v", tc.wantErr, v.Err())
			}
		})
	}
	if _, err := NewFrame(buf[:3]); err == nil {
		t.Error("short buffer accepted")
	}
}
