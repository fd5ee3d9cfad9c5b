package dns

import (
	"slices"
	"strconv"

	"github.com/pedoc/pnet"
)

// Message is a decoded DNS message: the four sections following the header.
// Buffers are reused across decodes; see [Message.LimitResourceDecoding].
type Message struct {
	Questions   []Question
	Answers     []Resource
	Authorities []Resource
	Additionals []Resource
}

// Question is one entry of the question section.
type Question struct {
	Name  Name
	Type  Type
	Class Class
}

// Resource is a resource record of the answer, authority or additional
// section. The record data is kept raw and dispatched to a typed body on
// demand, see [Resource.Body].
type Resource struct {
	header ResourceHeader
	data   []byte
	body   RData
}

// A ResourceHeader is the header shared by all DNS resource record types.
type ResourceHeader struct {
	Name   Name
	Type   Type
	Class  Class
	TTL    uint32
	Length uint16
}

// NewResource assembles a record from a typed body. The raw record data is
// produced by the body's encoder.
func NewResource(name Name, class Class, ttl uint32, body RData) Resource {
	data := body.appendRData(nil)
	return Resource{
		header: ResourceHeader{
			Name:   name,
			Type:   body.RType(),
			Class:  class,
			TTL:    ttl,
			Length: uint16(len(data)),
		},
		data: data,
		body: body,
	}
}

// Decode decodes the DNS message in msg into m, header included. It returns
// the number of bytes consumed and any error encountered. When section
// counts exceed the capacities set by [Message.LimitResourceDecoding] the
// surplus records are skipped and the error is [errTooManyRecs] sentinel
// behavior: incompleteButOK is true and the decoded part remains usable.
func (m *Message) Decode(msg []byte) (_ uint16, incompleteButOK bool, err error) {
	frm, err := NewFrame(msg)
	if err != nil {
		return 0, false, err
	}
	m.Reset()
	nq := int(frm.QDCount())
	overflow := nq > cap(m.Questions) ||
		int(frm.ANCount()) > cap(m.Answers) ||
		int(frm.NSCount()) > cap(m.Authorities) ||
		int(frm.ARCount()) > cap(m.Additionals)
	nq = min(nq, cap(m.Questions))
	off := uint16(SizeHeader)
	m.Questions = m.Questions[:nq]
	for i := 0; i < nq; i++ {
		off, err = m.Questions[i].Decode(msg, off)
		if err != nil {
			m.Questions = m.Questions[:i]
			return off, false, err
		}
	}
	for i := nq; i < int(frm.QDCount()); i++ {
		off, err = skipQuestion(msg, off)
		if err != nil {
			return off, false, err
		}
	}
	off, err = decodeToCapResources(&m.Answers, msg, frm.ANCount(), off)
	if err != nil {
		return off, false, err
	}
	off, err = decodeToCapResources(&m.Authorities, msg, frm.NSCount(), off)
	if err != nil {
		return off, false, err
	}
	off, err = decodeToCapResources(&m.Additionals, msg, frm.ARCount(), off)
	if err != nil {
		return off, false, err
	}
	if overflow {
		return off, true, errTooManyRecs
	}
	return off, false, nil
}

func decodeToCapResources(dst *[]Resource, msg []byte, nrec, off uint16) (_ uint16, err error) {
	total := int(nrec)
	n := min(total, cap(*dst))
	*dst = (*dst)[:n]
	for i := 0; i < n; i++ {
		off, err = (*dst)[i].Decode(msg, off)
		if err != nil {
			*dst = (*dst)[:i]
			return off, err
		}
	}
	// Walk past records beyond capacity without keeping them.
	for i := n; i < total; i++ {
		off, err = skipResource(msg, off)
		if err != nil {
			return off, err
		}
	}
	return off, nil
}

func skipQuestion(msg []byte, off uint16) (_ uint16, err error) {
	off, err = skipName(msg, off)
	if err != nil {
		return off, err
	}
	if int(off)+4 > len(msg) {
		return off, errBaseLen
	}
	return off + 4, nil
}

func skipResource(msg []byte, off uint16) (_ uint16, err error) {
	off, err = skipName(msg, off)
	if err != nil {
		return off, err
	}
	// | Name... | Type16 | Class16 | TTL32 | Length16 | Data... |
	if int(off)+10 > len(msg) {
		return off, errBaseLen
	}
	datalen := pnet.BigEndian.Uint16(msg[off+8:])
	off += datalen + 10
	if int(off) > len(msg) {
		return off, errBaseLen
	}
	return off, nil
}

// AppendTo serializes the message, header included, and returns the extended
// slice. Names are written uncompressed.
func (m *Message) AppendTo(buf []byte, txid uint16, flags HeaderFlags) (_ []byte, err error) {
	var hdr [SizeHeader]byte
	frm, _ := NewFrame(hdr[:])
	frm.SetTxID(txid)
	frm.SetFlags(flags)
	frm.SetQDCount(uint16(len(m.Questions)))
	frm.SetANCount(uint16(len(m.Answers)))
	frm.SetNSCount(uint16(len(m.Authorities)))
	frm.SetARCount(uint16(len(m.Additionals)))

	buf = slices.Grow(buf, int(m.Len()))
	buf = append(buf, hdr[:]...)
	for i := range m.Questions {
		buf, err = m.Questions[i].appendTo(buf)
		if err != nil {
			return buf, err
		}
	}
	for _, section := range [3][]Resource{m.Answers, m.Authorities, m.Additionals} {
		for i := range section {
			buf, err = section[i].appendTo(buf)
			if err != nil {
				return buf, err
			}
		}
	}
	return buf, nil
}

// Len returns the message's length over-the-wire.
func (m *Message) Len() uint16 {
	l := uint16(SizeHeader)
	for i := range m.Questions {
		l += m.Questions[i].Len()
	}
	for i := range m.Answers {
		l += m.Answers[i].Len()
	}
	for i := range m.Authorities {
		l += m.Authorities[i].Len()
	}
	for i := range m.Additionals {
		l += m.Additionals[i].Len()
	}
	return l
}

// AddQuestions copies questions into the message so later edits by the
// caller cannot alias the message's buffers.
func (m *Message) AddQuestions(questions []Question) {
	qoff := len(m.Questions)
	m.Questions = slices.Grow(m.Questions, len(questions))[:qoff+len(questions)]
	for i := range questions {
		m.Questions[qoff+i].CopyFrom(questions[i])
	}
}

// AddAnswers copies records into the answer section.
func (m *Message) AddAnswers(rsc []Resource) {
	aoff := len(m.Answers)
	m.Answers = slices.Grow(m.Answers, len(rsc))[:aoff+len(rsc)]
	for i := range rsc {
		m.Answers[aoff+i].CopyFrom(rsc[i])
	}
}

// AddAdditionals copies records into the additional section.
func (m *Message) AddAdditionals(rsc []Resource) {
	aoff := len(m.Additionals)
	m.Additionals = slices.Grow(m.Additionals, len(rsc))[:aoff+len(rsc)]
	for i := range rsc {
		m.Additionals[aoff+i].CopyFrom(rsc[i])
	}
}

// LimitResourceDecoding grows section capacities so Decode keeps up to the
// given number of entries per section instead of skipping them.
func (m *Message) LimitResourceDecoding(maxQ, maxAns, maxAuth, maxAdd uint16) {
	m.Questions = slices.Grow(m.Questions, int(maxQ))
	m.Answers = slices.Grow(m.Answers, int(maxAns))
	m.Authorities = slices.Grow(m.Authorities, int(maxAuth))
	m.Additionals = slices.Grow(m.Additionals, int(maxAdd))
}

// Reset empties all sections, reusing their buffers.
func (m *Message) Reset() {
	m.Questions = m.Questions[:0]
	m.Answers = m.Answers[:0]
	m.Authorities = m.Authorities[:0]
	m.Additionals = m.Additionals[:0]
}

// CopyFrom deep-copies msg into dst, reusing dst's buffers.
func (dst *Message) CopyFrom(msg Message) {
	dst.Reset()
	dst.AddQuestions(msg.Questions)
	dst.AddAnswers(msg.Answers)
	dst.Authorities = slices.Grow(dst.Authorities, len(msg.Authorities))[:len(msg.Authorities)]
	for i := range msg.Authorities {
		dst.Authorities[i].CopyFrom(msg.Authorities[i])
	}
	dst.AddAdditionals(msg.Additionals)
}

// Decode reads the question at off in msg.
func (q *Question) Decode(msg []byte, off uint16) (uint16, error) {
	off, err := q.Name.Decode(msg, off)
	if err != nil {
		return off, err
	}
	if int(off)+4 > len(msg) {
		return off, errResourceLen
	}
	q.Type = Type(pnet.BigEndian.Uint16(msg[off:]))
	q.Class = Class(pnet.BigEndian.Uint16(msg[off+2:]))
	return off + 4, nil
}

func (q *Question) appendTo(buf []byte) (_ []byte, err error) {
	buf, err = q.Name.AppendTo(buf)
	if err != nil {
		return buf, err
	}
	buf = pnet.BigEndian.AppendUint16(buf, uint16(q.Type))
	buf = pnet.BigEndian.AppendUint16(buf, uint16(q.Class))
	return buf, nil
}

// Len returns Question's length over-the-wire.
func (q *Question) Len() uint16 { return q.Name.Len() + 4 }

// CopyFrom deep-copies question ex into q, reusing q's name buffer.
func (q *Question) CopyFrom(ex Question) {
	q.Name.CopyFrom(ex.Name)
	q.Type = ex.Type
	q.Class = ex.Class
}

// String returns a string representation of the Question with the Name in dotted format.
func (q *Question) String() string {
	return q.Name.String() + " " + q.Type.String() + " " + q.Class.String()
}

// Header returns the record's header fields.
func (r *Resource) Header() ResourceHeader { return r.header }

// RawData returns the record data exactly as carried on the wire.
func (r *Resource) RawData() []byte {
	length := min(int(r.header.Length), len(r.data))
	return r.data[:length]
}

// Decode reads the record at off in msg and eagerly dispatches its data to a
// typed body while msg is still at hand for compressed names.
func (r *Resource) Decode(msg []byte, off uint16) (uint16, error) {
	off, err := r.header.Decode(msg, off)
	if err != nil {
		return off, err
	}
	if int(off)+int(r.header.Length) > len(msg) {
		return off, errResourceLen
	}
	r.data = append(r.data[:0], msg[off:off+r.header.Length]...)
	r.body, err = decodeRData(r.header.Type, msg, off, r.header.Length)
	if err != nil {
		return off, err
	}
	return off + r.header.Length, nil
}

func (r *Resource) appendTo(buf []byte) (_ []byte, err error) {
	buf, err = r.header.appendTo(buf)
	if err != nil {
		return buf, err
	}
	return append(buf, r.data...), nil
}

// Len returns the record's length over-the-wire.
func (r *Resource) Len() uint16 {
	return r.header.Name.Len() + 10 + uint16(len(r.data))
}

// Reset empties the record, reusing its buffers.
func (r *Resource) Reset() {
	r.header.Reset()
	r.data = r.data[:0]
	r.body = nil
}

// CopyFrom deep-copies record ex into r, reusing r's buffers.
func (r *Resource) CopyFrom(ex Resource) {
	r.header.CopyFrom(ex.header)
	r.data = append(r.data[:0], ex.data...)
	r.body = ex.body
}

// Decode reads the record header at off in msg.
func (rhdr *ResourceHeader) Decode(msg []byte, off uint16) (uint16, error) {
	off, err := rhdr.Name.Decode(msg, off)
	if err != nil {
		return off, err
	}
	if int(off)+10 > len(msg) {
		return off, errResourceLen
	}
	rhdr.Type = Type(pnet.BigEndian.Uint16(msg[off:]))
	rhdr.Class = Class(pnet.BigEndian.Uint16(msg[off+2:]))
	rhdr.TTL = pnet.BigEndian.Uint32(msg[off+4:])
	rhdr.Length = pnet.BigEndian.Uint16(msg[off+8:])
	return off + 10, nil
}

func (rhdr *ResourceHeader) appendTo(buf []byte) (_ []byte, err error) {
	buf, err = rhdr.Name.AppendTo(buf)
	if err != nil {
		return buf, err
	}
	buf = pnet.BigEndian.AppendUint16(buf, uint16(rhdr.Type))
	buf = pnet.BigEndian.AppendUint16(buf, uint16(rhdr.Class))
	buf = pnet.BigEndian.AppendUint32(buf, rhdr.TTL)
	buf = pnet.BigEndian.AppendUint16(buf, rhdr.Length)
	return buf, nil
}

// Reset empties the header, reusing the name buffer.
func (rhdr *ResourceHeader) Reset() {
	rhdr.Name.Reset()
	*rhdr = ResourceHeader{Name: rhdr.Name}
}

// CopyFrom deep-copies header ex into rhdr, reusing rhdr's name buffer.
func (rhdr *ResourceHeader) CopyFrom(ex ResourceHeader) {
	rhdr.Name.CopyFrom(ex.Name)
	rhdr.Type = ex.Type
	rhdr.Class = ex.Class
	rhdr.TTL = ex.TTL
	rhdr.Length = ex.Length
}

// String returns a string representation of the header.
func (rhdr *ResourceHeader) String() string {
	return rhdr.Name.String() + " " + rhdr.Type.String() + " " + rhdr.Class.String() +
		" ttl=" + strconv.FormatUint(uint64(rhdr.TTL), 10) +
		" len=" + strconv.FormatUint(uint64(rhdr.Length), 10)
}
