package shader

import "github.com/Carmen-Shannon/oxy-pbr/engine/logging"

// ComposerOption is a functional option used to configure a Composer during construction.
type ComposerOption func(*Composer)

// WithValidation makes the composer validate every new program with Validate before caching it.
//
// Parameters:
//   - enabled: whether to validate composed programs
//
// Returns:
//   - ComposerOption: a function that sets the validation flag
func WithValidation(enabled bool) ComposerOption {
	return func(c *Composer) {
		c.validate = enabled
	}
}

// WithLogger sets the logger the composer reports to.
func WithLogger(logger logging.Logger) ComposerOption {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger.With("Shader")
		}
	}
}
