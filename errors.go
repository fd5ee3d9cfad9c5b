package pnet

import "errors"

// Errors common to packet encoding and decoding.
var (
	// ErrNilBuffer is returned when a view is constructed over an absent buffer.
	ErrNilBuffer = errors.New("pnet: nil buffer")
	// ErrShortBuffer is returned when a buffer is too small to hold the
	// requested structure. Mirrors io.ErrShortBuffer semantics.
	ErrShortBuffer = errors.New("pnet: short buffer")
	// ErrInvalidLengthField is returned when a length field contradicts the
	// data it describes.
	ErrInvalidLengthField = errors.New("pnet: invalid length field")
	// ErrInvalidField is returned on a field value that may not be encoded.
	ErrInvalidField = errors.New("pnet: invalid field")
	// ErrBadCRC is reported by validators on an incorrect checksum.
	ErrBadCRC = errors.New("pnet: incorrect checksum")
)
