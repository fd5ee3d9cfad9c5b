// Package tlv implements the generic type-length-value option machinery
// shared by the IPv4, IPv6, TCP and mobility option alphabets: a single-option
// encode contract, a list-level best-effort parser, and per-alphabet decoder
// registries ([Scheme]). Parsing wire data never panics and never returns an
// error; malformed input degrades to a list with Valid reporting false and
// whatever options were recovered before the failure still present.
package tlv

import "github.com/pedoc/pnet"

// Option is the contract a concrete option of any alphabet satisfies.
// Length reports the total encoded size including the kind/length header and
// must exactly match the bytes written by Encode.
type Option interface {
	// Kind returns the option's type code within its alphabet.
	Kind() uint8
	// Length returns the total encoded size in bytes, header included.
	Length() int
	// Encode serializes the option at dst[0:] and returns the bytes written,
	// which must equal Length(). dst is guaranteed to hold Length() bytes.
	Encode(dst []byte) int
	// AppearsAtMostOnce declares the structural constraint enforced by the
	// list-level parser: a second occurrence invalidates the list.
	AppearsAtMostOnce() bool
}

// Options is an ordered, immutable list of parsed options together with the
// byte length of the wire region they came from and a validity flag.
type Options[T Option] struct {
	list        []T
	bytesLength int
	valid       bool
}

// OptionsFrom builds an option list from trusted application values for the
// outbound path. The list's byte length is the sum of the option lengths;
// serializing into a larger buffer pads with zeros.
func OptionsFrom[T Option](opts ...T) Options[T] {
	n := 0
	for _, opt := range opts {
		n += opt.Length()
	}
	return Options[T]{list: opts, bytesLength: n, valid: true}
}

// Len returns the number of parsed options.
func (o Options[T]) Len() int { return len(o.list) }

// At returns the i-th option in wire order.
func (o Options[T]) At(i int) T { return o.list[i] }

// Slice returns the parsed options in wire order. The returned slice must not
// be modified.
func (o Options[T]) Slice() []T { return o.list }

// BytesLength returns the total wire length of the option region, trailing
// padding included. It is fixed when the list is constructed and never
// recomputed from the options.
func (o Options[T]) BytesLength() int { return o.bytesLength }

// Valid reports whether the whole option region parsed cleanly: no truncated
// or undecodable option and no repeat of an at-most-once kind. Options parsed
// before a failure remain accessible either way.
func (o Options[T]) Valid() bool { return o.valid }

// Encode serializes the options in list order into dst and zero-fills the
// remainder. The zero byte doubles as End-of-Options for the IPv4/TCP
// alphabets and Pad1 for the IPv6 alphabets, so zero fill is canonical
// padding in all of them. Returns [pnet.ErrShortBuffer] if dst cannot hold
// the options.
func (o Options[T]) Encode(dst []byte) (int, error) {
	need := 0
	for _, opt := range o.list {
		need += opt.Length()
	}
	if need > len(dst) {
		return 0, pnet.ErrShortBuffer
	}
	off := 0
	for _, opt := range o.list {
		n := opt.Encode(dst[off:])
		if n != opt.Length() {
			panic("tlv: option Encode/Length mismatch")
		}
		off += n
	}
	for i := off; i < len(dst); i++ {
		dst[i] = 0
	}
	return len(dst), nil
}

// EncodedEqual reports whether two lists serialize to identical bytes,
// padding excluded: same kinds, same order, same data.
func EncodedEqual[T Option](a, b Options[T]) bool {
	an := 0
	for _, opt := range a.list {
		an += opt.Length()
	}
	bn := 0
	for _, opt := range b.list {
		bn += opt.Length()
	}
	if an != bn {
		return false
	}
	abuf := make([]byte, an)
	bbuf := make([]byte, bn)
	a.Encode(abuf)
	b.Encode(bbuf)
	return string(abuf) == string(bbuf)
}
