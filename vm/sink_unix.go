//go:build unix

package vm

import "golang.org/x/sys/unix"

// FdSink writes to a file descriptor with the raw write syscall, bypassing
// stdio buffering. Short writes are retried until the buffer is drained.
type FdSink struct {
	fd int
}

// NewFdSink wraps a raw file descriptor.
func NewFdSink(fd int) *FdSink {
	return &FdSink{fd: fd}
}

func (s *FdSink) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := unix.Write(s.fd, p[total:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return total, err
		}
		total += n
	}
	return total, nil
}

// Stdout returns the default output sink for this platform.
func Stdout() Sink {
	return NewFdSink(1)
}
