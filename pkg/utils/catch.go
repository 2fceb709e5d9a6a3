package utils

import (
	"errors"
	"fmt"
)

var ErrPanic = errors.New("panic")

// Catch calls f and converts a panic raised by it into an error
// wrapping ErrPanic.
func Catch(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("%w: %w", ErrPanic, e)
			} else {
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}
	}()
	return f()
}
