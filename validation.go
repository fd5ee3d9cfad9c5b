package pnet

import "errors"

// ValidateFlags modify the behavior of a [Validator].
type ValidateFlags uint64

const (
	validateReserved ValidateFlags = 1 << iota
	// ValidateMultiErrors accumulates every error found instead of only the first.
	ValidateMultiErrors
)

func (vf ValidateFlags) has(v ValidateFlags) bool {
	return vf&v == v
}

// Validator accumulates errors found while validating frame fields so that a
// single pass over a packet can report everything wrong with it. Wire-data
// malformation is reported through a Validator or a validity flag, never as a
// panic; see the package documentation on error classes.
type Validator struct {
	accum []error
	flags ValidateFlags
}

// NewValidator returns a Validator with the given flags set.
func NewValidator(flags ValidateFlags) *Validator {
	if flags.has(validateReserved) {
		panic("pnet: reserved validate flag set")
	}
	return &Validator{flags: flags}
}

// Flags returns the flags the Validator was configured with.
func (v *Validator) Flags() ValidateFlags { return v.flags }

// ResetErr discards accumulated errors, readying v for reuse.
func (v *Validator) ResetErr() {
	v.accum = v.accum[:0]
}

// HasError reports whether any error was accumulated.
func (v *Validator) HasError() bool {
	return len(v.accum) != 0
}

// Err returns the accumulated error(s), joined if there are several.
func (v *Validator) Err() error {
	if len(v.accum) == 1 {
		return v.accum[0]
	} else if len(v.accum) == 0 {
		return nil
	}
	return errors.Join(v.accum...)
}

// AddError accumulates err. Unless [ValidateMultiErrors] is set only the first
// error is retained.
func (v *Validator) AddError(err error) {
	if err == nil {
		panic("error argument to AddError cannot be nil")
	} else if len(v.accum) != 0 && !v.flags.has(ValidateMultiErrors) {
		return
	}
	v.accum = append(v.accum, err)
}
