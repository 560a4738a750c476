package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// ErrInvalidProgram is returned when WGSL source fails to compile.
var ErrInvalidProgram = errors.New("invalid shader program")

// Validate compiles WGSL source with naga and reports whether it is well formed.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - error: an error wrapping ErrInvalidProgram and the compiler diagnostic, or nil
func Validate(source string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProgram, err)
	}
	return nil
}
