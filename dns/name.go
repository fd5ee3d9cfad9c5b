package dns

import (
	"bytes"
	"strings"
)

// maxPointers bounds compression pointer chasing per name so a crafted
// message cannot loop the decoder.
const maxPointers = 10

// maxNameLength is the RFC 1035 cap on an encoded name including the
// terminating zero octet.
const maxNameLength = 255

var rootName = []byte{0}

// Name is a domain name stored in wire format: length-prefixed labels
// terminated by a zero octet, never compressed. Decoding resolves
// compression pointers so a Name is self-contained.
type Name struct {
	data []byte
}

// MustNewName is like [NewName] but panics on a malformed domain.
func MustNewName(s string) Name {
	name, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return name
}

// NewName parses a dotted domain name and returns a new Name.
func NewName(domain string) (Name, error) {
	if domain == "" {
		return Name{}, errEmptyName
	}
	if domain == "." {
		return Name{data: append([]byte{}, rootName...)}, nil
	}
	var name Name
	for len(domain) > 0 {
		label, rest, dotted := strings.Cut(domain, ".")
		if !name.CanAddLabel(label) {
			return Name{}, errCantAddLabel
		}
		name.AddLabel(label)
		if !dotted {
			break
		}
		domain = rest
	}
	return name, nil
}

// Len returns the length over-the-wire of the encoded Name.
func (n *Name) Len() uint16 { return uint16(len(n.data)) }

// CopyFrom replaces n's labels with ex's, reusing n's buffer.
func (n *Name) CopyFrom(ex Name) {
	n.data = append(n.data[:0], ex.data...)
}

// Reset empties the name, reusing the buffer.
func (n *Name) Reset() { n.data = n.data[:0] }

// AppendTo appends the Name to b in wire format and returns the resulting slice.
func (n *Name) AppendTo(b []byte) ([]byte, error) {
	if len(n.data) == 0 {
		return b, errInvalidName
	}
	return append(b, n.data...), nil
}

// String returns the name in dotted format.
func (n *Name) String() string {
	b := make([]byte, 0, len(n.data)+3)
	return string(n.AppendDottedTo(b))
}

// AppendDottedTo appends the Name to b in dotted format and returns the resulting slice.
func (n *Name) AppendDottedTo(b []byte) []byte {
	n.VisitLabels(func(label []byte) {
		b = append(b, label...)
		b = append(b, '.')
	})
	return b
}

// Decode resets the name and reads it from msg at off, resolving compression
// pointers. It returns the offset of the first byte after the name as laid
// out in the message, not counting pointed-to data.
func (n *Name) Decode(msg []byte, off uint16) (uint16, error) {
	n.Reset()
	off, err := visitAllLabels(msg, off, n.visitAddLabel)
	if err != nil {
		n.Reset()
		return off, err
	}
	n.data = append(n.data, 0) // visitAllLabels consumed the terminator, store it.
	return off, nil
}

// CanAddLabel reports whether the label can be added to the name.
func (n *Name) CanAddLabel(label string) bool {
	return len(label) != 0 && len(label) <= 63 &&
		len(n.data)+len(label)+2 <= maxNameLength && // Length octet plus terminator.
		label[len(label)-1] != 0 && // No implicitly zero-terminated labels.
		strings.IndexByte(label, '.') < 0 // See issue golang/go#56246
}

// AddLabel adds a label to the name. If n.CanAddLabel(label) returns false, it panics.
func (n *Name) AddLabel(label string) {
	if !n.CanAddLabel(label) {
		panic(errCantAddLabel.Error())
	}
	if l := len(n.data); l > 0 && n.data[l-1] == 0 {
		n.data = n.data[:l-1] // Drop terminator to append another label.
	}
	n.data = append(n.data, byte(len(label)))
	n.data = append(n.data, label...)
	n.data = append(n.data, 0)
}

func (n *Name) visitAddLabel(label []byte) {
	n.data = append(n.data, byte(len(label)))
	n.data = append(n.data, label...)
}

// VisitLabels calls fn once per label in order. The argument aliases the
// name's buffer and must not be retained.
func (n *Name) VisitLabels(fn func(label []byte)) error {
	if len(n.data) > maxNameLength {
		return errNameTooLong
	}
	_, err := visitAllLabels(n.data, 0, fn)
	return err
}

// visitAllLabels walks the labels of the name at off, following compression
// pointers up to maxPointers deep, and returns the offset just past the
// name's bytes at its original position.
func visitAllLabels(msg []byte, off uint16, fn func(b []byte)) (uint16, error) {
	currOff := off
	// endOff is where the name ends in the message proper. Bytes reached
	// through pointers belong to earlier names and do not count.
	endOff := off
	var ptr uint8
	for {
		if int(currOff) >= len(msg) {
			return off, errBaseLen
		}
		c := uint16(msg[currOff])
		currOff++
		switch c & 0xc0 {
		case 0x00: // Length-prefixed label.
			if c == 0x00 {
				// Terminator.
				if ptr == 0 {
					endOff = currOff
				}
				return endOff, nil
			}
			next := currOff + c
			if int(next) > len(msg) {
				return off, errLabelLen
			}
			if bytes.IndexByte(msg[currOff:next], '.') >= 0 {
				return off, errInvalidName
			}
			fn(msg[currOff:next])
			currOff = next

		case 0xc0: // Compression pointer.
			if int(currOff) >= len(msg) {
				return off, errInvalidPtr
			}
			c1 := msg[currOff]
			currOff++
			if ptr == 0 {
				endOff = currOff
			}
			if ptr++; ptr > maxPointers {
				return off, errTooManyPtr
			}
			currOff = (c^0xc0)<<8 | uint16(c1)

		default:
			// Prefixes 0x80 and 0x40 are reserved.
			return off, errReserved
		}
	}
}

func skipName(msg []byte, off uint16) (uint16, error) {
	return visitAllLabels(msg, off, func([]byte) {})
}
