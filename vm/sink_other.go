//go:build !unix

package vm

import "os"

// Stdout returns the default output sink for this platform.
func Stdout() Sink {
	return os.Stdout
}
