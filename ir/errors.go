package ir

import "fmt"

func errorf(format string, args ...any) error {
	return fmt.Errorf("malformed payload: "+format, args...)
}

func typeError(what, want string, got any) error {
	return errorf("%s: expected %s, got %T", what, want, got)
}
