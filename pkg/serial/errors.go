package serial

import "fmt"

// UnknownFlagError is returned by ParseFlags for an unrecognized name.
type UnknownFlagError struct {
	Name string
}

// Error implements error.
func (e *UnknownFlagError) Error() string {
	return fmt.Sprintf("unknown flag %q", e.Name)
}
