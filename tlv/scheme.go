package tlv

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// LevelTrace is the slog level used for per-option trace events, below Debug
// so it stays silent under default handlers.
const LevelTrace = slog.LevelDebug - 2

// Decoder constructs an option of an alphabet from its kind and the value
// bytes declared by the wire length field. Returning an error signals a
// malformed option and halts the list parse; the value slice aliases the
// packet buffer and must be copied if retained.
type Decoder[T Option] func(kind uint8, value []byte) (T, error)

// SchemeConfig declares the wire conventions of one option alphabet.
type SchemeConfig struct {
	// Name identifies the alphabet in trace output, e.g. "tcp".
	Name string
	// EndKind is a single-byte kind that terminates the list; bytes after it
	// are padding. -1 if the alphabet has no terminator (IPv6 options).
	EndKind int
	// PadKind is a single-byte padding/no-op kind carrying no length field.
	// It is skipped over by the walk but still materialized in the parsed
	// list. -1 if the alphabet has none.
	PadKind int
	// LengthIncludesHeader is set when the wire length byte counts the
	// kind+length header itself (IPv4, TCP) rather than only the value
	// bytes (IPv6 hop-by-hop/destination, mobility).
	LengthIncludesHeader bool
}

type entry[T Option] struct {
	dec       Decoder[T]
	singleton T
	fixed     bool
}

// Scheme is the decoder registry of one option alphabet: it maps kind values
// to the decoder responsible for them and drives the list-level parse. Each
// kind space (IPv4 options, TCP options, ...) owns an independent Scheme.
//
// A Scheme is populated by explicit Register calls at package init and is
// frozen on first use (or by Freeze); registration after that panics. Once
// frozen it is read-only and safe for unsynchronized concurrent parses.
type Scheme[T Option] struct {
	cfg     SchemeConfig
	entries map[uint8]entry[T]
	unknown Decoder[T]
	frozen  atomic.Bool
	log     *slog.Logger
}

// NewScheme returns an empty Scheme with the given wire conventions.
func NewScheme[T Option](cfg SchemeConfig) *Scheme[T] {
	return &Scheme[T]{cfg: cfg, entries: make(map[uint8]entry[T])}
}

// Name returns the alphabet name the scheme was configured with.
func (s *Scheme[T]) Name() string { return s.cfg.Name }

// Register binds kind to a decoder that allocates a fresh option per parse.
func (s *Scheme[T]) Register(kind uint8, dec Decoder[T]) {
	s.register(kind, entry[T]{dec: dec})
}

// RegisterSingleton binds kind to a canonical shared instance. Only valid for
// stateless options with no payload; every parse yields the same instance.
// This is transparent to callers, a singleton behaves exactly like a freshly
// decoded option of the same kind.
func (s *Scheme[T]) RegisterSingleton(kind uint8, opt T) {
	if opt.Kind() != kind {
		panic(fmt.Sprintf("tlv: %s singleton kind mismatch: %d != %d", s.cfg.Name, opt.Kind(), kind))
	}
	s.register(kind, entry[T]{singleton: opt, fixed: true})
}

// RegisterUnknown binds the fallback decoder for unregistered kinds. Every
// scheme must have one: unrecognized options are preserved as raw bytes
// rather than failing, keeping round-trip fidelity for options this build
// does not understand.
func (s *Scheme[T]) RegisterUnknown(dec Decoder[T]) {
	if s.frozen.Load() {
		panic("tlv: register on frozen scheme " + s.cfg.Name)
	}
	s.unknown = dec
}

func (s *Scheme[T]) register(kind uint8, e entry[T]) {
	if s.frozen.Load() {
		panic("tlv: register on frozen scheme " + s.cfg.Name)
	}
	if _, exists := s.entries[kind]; exists {
		panic(fmt.Sprintf("tlv: %s kind %d registered twice", s.cfg.Name, kind))
	}
	s.entries[kind] = e
}

// EnableTrace logs unknown kinds and invalid lists to l at [LevelTrace].
// Must be called before the scheme is frozen.
func (s *Scheme[T]) EnableTrace(l *slog.Logger) {
	if s.frozen.Load() {
		panic("tlv: EnableTrace on frozen scheme " + s.cfg.Name)
	}
	s.log = l
}

// Freeze makes the scheme read-only. The first Parse freezes implicitly;
// calling Freeze at the end of package init makes the barrier explicit.
func (s *Scheme[T]) Freeze() {
	if s.unknown == nil {
		panic("tlv: scheme " + s.cfg.Name + " frozen without unknown-option decoder")
	}
	if s.cfg.PadKind >= 0 {
		e, ok := s.entries[uint8(s.cfg.PadKind)]
		if !ok || !e.fixed || e.singleton.Length() != 1 {
			panic("tlv: scheme " + s.cfg.Name + " pad kind needs a 1-byte singleton")
		}
	}
	s.frozen.Store(true)
}

// Parse walks the option region in buf and decodes every option through the
// registry. It implements the shared TLV algorithm: one byte of kind, the
// alphabet's end/pad kinds handled without a length field, a length byte for
// everything else, registry dispatch, and an at-most-once pass over the
// result. Malformation never panics: the returned list carries the options
// recovered before the failure and Valid()==false.
//
// The caller delimits buf to the exact option region (header length fields of
// the enclosing protocol), so BytesLength of the result is len(buf), trailing
// padding included.
func (s *Scheme[T]) Parse(buf []byte) Options[T] {
	if !s.frozen.Load() {
		s.Freeze()
	}
	opts := Options[T]{bytesLength: len(buf), valid: true}
	off := 0
walk:
	for off < len(buf) {
		kind := buf[off]
		if s.cfg.EndKind >= 0 && int(kind) == s.cfg.EndKind {
			break // rest of region is padding
		}
		if s.cfg.PadKind >= 0 && int(kind) == s.cfg.PadKind {
			opts.list = append(opts.list, s.entries[kind].singleton)
			off++
			continue
		}
		if off+1 >= len(buf) {
			// kind byte with no room for a length field
			opts.valid = false
			break
		}
		declared := int(buf[off+1])
		var total, valueLen int
		if s.cfg.LengthIncludesHeader {
			total = declared
			valueLen = declared - 2
		} else {
			total = 2 + declared
			valueLen = declared
		}
		if valueLen < 0 || off+total > len(buf) {
			opts.valid = false
			break
		}
		value := buf[off+2 : off+2+valueLen]

		var opt T
		var err error
		ent, registered := s.entries[kind]
		switch {
		case registered && ent.fixed:
			if ent.singleton.Length() != total {
				opts.valid = false
				break walk
			}
			opt = ent.singleton
		case registered:
			opt, err = ent.dec(kind, value)
		default:
			s.trace("tlv: unknown option kind",
				slog.String("scheme", s.cfg.Name), slog.Int("kind", int(kind)), slog.Int("len", valueLen))
			opt, err = s.unknown(kind, value)
		}
		if err != nil || opt.Length() != total {
			// partial option discarded, earlier results kept
			opts.valid = false
			break
		}
		opts.list = append(opts.list, opt)
		off += total
	}
	if !s.atMostOnceSatisfied(opts.list) {
		opts.valid = false
	}
	if !opts.valid {
		s.trace("tlv: invalid option list",
			slog.String("scheme", s.cfg.Name), slog.Int("parsed", len(opts.list)), slog.Int("bytes", len(buf)))
	}
	return opts
}

func (s *Scheme[T]) atMostOnceSatisfied(list []T) bool {
	var seen [256 / 8]uint8
	for _, opt := range list {
		if !opt.AppearsAtMostOnce() {
			continue
		}
		k := opt.Kind()
		if seen[k/8]&(1<<(k%8)) != 0 {
			return false
		}
		seen[k/8] |= 1 << (k % 8)
	}
	return true
}

func (s *Scheme[T]) trace(msg string, attrs ...slog.Attr) {
	if s.log == nil {
		return
	}
	s.log.LogAttrs(context.Background(), LevelTrace, msg, attrs...)
}
