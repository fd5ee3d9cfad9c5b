package igmp

import (
	"testing"
	"time"

	"github.com/pedoc/pnet"
	"github.com/stretchr/testify/require"
)

func TestMaxResponseCode(t *testing.T) {
	for _, tc := range []struct {
		code   MaxResponseCode
		tenths uint32
	}{
		{code: 0, tenths: 0},
		{code: 100, tenths: 100},
		{code: 127, tenths: 127},
		// From 128 on the octet packs 1eeemmmm: (mant|0x10)<<(exp+3).
		{code: 0x80, tenths: 128},
		{code: 0x8f, tenths: 248},
		{code: 0x90, tenths: 256},
		{code: 0xff, tenths: 31744},
	} {
		require.Equal(t, tc.tenths, tc.code.Tenths(), "code %#02x", uint8(tc.code))
	}
	require.Equal(t, 10*time.Second, MaxResponseCode(100).Duration())
}

func TestQueryV3(t *testing.T) {
	// General query with two source addresses.
	buf := make([]byte, sizeQueryV3+8)
	frm, err := NewFrame(buf)
	require.NoError(t, err)
	frm.SetType(TypeMembershipQuery)
	frm.SetMaxResponseCode(100)
	ga := frm.GroupAddr()
	*ga = [4]byte{224, 0, 0, 1}
	require.True(t, frm.IsQueryV3())

	m, err := frm.Message()
	require.NoError(t, err)
	q, ok := m.(FrameQueryV3)
	require.True(t, ok, "dispatched to %T", m)
	q.SetFlagsAndQRV(true, 2)
	require.True(t, q.SuppressRouterProcessing())
	require.Equal(t, uint8(2), q.QuerierRobustnessVariable())
	buf[9] = 125 // QQIC in whole seconds
	require.Equal(t, 125*time.Second, q.QueriersQueryInterval())
	pnet.BigEndian.PutUint16(buf[10:12], 2)
	require.Equal(t, uint16(2), q.NumberOfSources())
	*q.SourceAddr(0) = [4]byte{10, 0, 0, 1}
	*q.SourceAddr(1) = [4]byte{10, 0, 0, 2}
	require.Equal(t, [4]byte{10, 0, 0, 2}, *q.SourceAddr(1))

	v := pnet.NewValidator(0)
	frm.ValidateSize(v)
	require.NoError(t, v.Err())
	// A third source would run past the buffer.
	pnet.BigEndian.PutUint16(buf[10:12], 3)
	frm.ValidateSize(v)
	require.Error(t, v.Err())

	frm.SetCRC(frm.CalculateCRC())
	require.True(t, frm.VerifyCRC())
	buf[4] ^= 1
	require.False(t, frm.VerifyCRC())
}

func TestQueryV2Dispatch(t *testing.T) {
	// An 8-byte query is a v1/v2 query, not v3.
	var buf [sizeHeader]byte
	frm, err := NewFrame(buf[:])
	require.NoError(t, err)
	frm.SetType(TypeMembershipQuery)
	require.False(t, frm.IsQueryV3())
	m, err := frm.Message()
	require.NoError(t, err)
	_, ok := m.(FrameV2)
	require.True(t, ok, "dispatched to %T", m)
}

func TestReportV3Records(t *testing.T) {
	// Two group records: one with a source and aux data, one bare.
	rec0 := []byte{
		uint8(RecordModeIsExclude), 1, 0, 1, // type, aux len, 1 source
		239, 1, 2, 3, // group
		10, 0, 0, 9, // source
		0xde, 0xad, 0xbe, 0xef, // aux word
	}
	rec1 := []byte{
		uint8(RecordAllowNewSources), 0, 0, 0,
		239, 4, 5, 6,
	}
	buf := make([]byte, 0, sizeHeader+len(rec0)+len(rec1))
	buf = append(buf, uint8(TypeMembershipReportV3), 0, 0, 0, 0, 0, 0, 2)
	buf = append(buf, rec0...)
	buf = append(buf, rec1...)

	frm, err := NewFrame(buf)
	require.NoError(t, err)
	m, err := frm.Message()
	require.NoError(t, err)
	rep, ok := m.(FrameReportV3)
	require.True(t, ok, "dispatched to %T", m)
	require.Equal(t, uint16(2), rep.NumberOfRecords())

	recs, err := rep.Records(nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, RecordModeIsExclude, recs[0].Type())
	require.Equal(t, uint16(1), recs[0].NumberOfSources())
	require.Equal(t, uint8(1), recs[0].AuxDataLen())
	require.Equal(t, [4]byte{239, 1, 2, 3}, *recs[0].MulticastAddr())
	require.Equal(t, [4]byte{10, 0, 0, 9}, *recs[0].SourceAddr(0))
	require.Equal(t, RecordAllowNewSources, recs[1].Type())
	require.Equal(t, [4]byte{239, 4, 5, 6}, *recs[1].MulticastAddr())
	if &recs[0].Raw[0] != &buf[sizeHeader] {
		t.Error("record does not alias message buffer")
	}

	// Truncating the buffer cuts the walk short with the first record intact.
	short, _ := NewFrame(buf[:sizeHeader+len(rec0)+4])
	recs, err = FrameReportV3{short}.Records(nil)
	require.Error(t, err)
	require.Len(t, recs, 1)
}

func TestUnknownType(t *testing.T) {
	var buf [sizeHeader]byte
	frm, err := NewFrame(buf[:])
	require.NoError(t, err)
	frm.SetType(Type(0x42))
	require.Equal(t, "unknown", frm.Type().String())
	m, err := frm.Message()
	require.NoError(t, err)
	_, ok := m.(FrameUnknown)
	require.True(t, ok, "dispatched to %T", m)

	_, err = NewFrame(buf[:7])
	require.Error(t, err)
}
