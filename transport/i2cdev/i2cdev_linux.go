//go:build linux

package i2cdev

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/moffa90/go-ddcci/ddc"
)

// DefaultPattern matches the i2c-dev character devices.
const DefaultPattern = "/dev/i2c-*"

// ioctl requests from linux/i2c-dev.h
const (
	ioctlTimeout = 0x0702 // I2C_TIMEOUT, in units of 10ms
	ioctlSlave   = 0x0703 // I2C_SLAVE
)

const timeoutUnit = 10 * time.Millisecond

// Bus is an open i2c-dev adapter. It is safe for concurrent use.
type Bus struct {
	mu      sync.Mutex
	path    string
	fd      int
	addr    int
	timeout time.Duration
	closed  bool
}

// Open opens the i2c-dev adapter at path.
func Open(path string) (*Bus, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("i2cdev: open %s: %w", path, mapErrno(err))
	}
	return &Bus{path: path, fd: fd, addr: -1}, nil
}

// Path returns the device path.
func (b *Bus) Path() string {
	return b.path
}

// Description implements ddc.Describer.
func (b *Bus) Description() string {
	return b.path
}

// Write implements ddc.Transport.
func (b *Bus) Write(addr byte, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.selectAddr(addr); err != nil {
		return err
	}

	n, err := unix.Write(b.fd, data)
	if err != nil {
		return fmt.Errorf("i2cdev: write %s: %w", b.path, mapErrno(err))
	}
	if n != len(data) {
		return fmt.Errorf("i2cdev: short write to %s (%d of %d bytes): %w", b.path, n, len(data), ddc.ErrTimeout)
	}
	return nil
}

// Read implements ddc.Transport.
func (b *Bus) Read(addr byte, maxBytes int, timeout time.Duration) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.selectAddr(addr); err != nil {
		return nil, err
	}
	if err := b.setTimeout(timeout); err != nil {
		return nil, err
	}

	buf := make([]byte, maxBytes)
	n, err := unix.Read(b.fd, buf)
	if err != nil {
		return nil, fmt.Errorf("i2cdev: read %s: %w", b.path, mapErrno(err))
	}
	return buf[:n], nil
}

// Close releases the adapter. Later calls fail with ddc.ErrTransportGone.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if err := unix.Close(b.fd); err != nil {
		return fmt.Errorf("i2cdev: close %s: %w", b.path, err)
	}
	return nil
}

// selectAddr points the file descriptor at addr. Caller holds b.mu.
func (b *Bus) selectAddr(addr byte) error {
	if b.closed {
		return fmt.Errorf("i2cdev: %s is closed: %w", b.path, ddc.ErrTransportGone)
	}
	if b.addr == int(addr) {
		return nil
	}
	if err := unix.IoctlSetInt(b.fd, ioctlSlave, int(addr)); err != nil {
		return fmt.Errorf("i2cdev: select 0x%02X on %s: %w", addr, b.path, mapErrno(err))
	}
	b.addr = int(addr)
	return nil
}

// setTimeout applies the adapter timeout, rounded up to 10ms. Caller holds b.mu.
func (b *Bus) setTimeout(timeout time.Duration) error {
	if timeout <= 0 || timeout == b.timeout {
		return nil
	}
	units := int((timeout + timeoutUnit - 1) / timeoutUnit)
	if err := unix.IoctlSetInt(b.fd, ioctlTimeout, units); err != nil {
		return fmt.Errorf("i2cdev: set timeout on %s: %w", b.path, mapErrno(err))
	}
	b.timeout = timeout
	return nil
}

// mapErrno wraps errno values with the ddc sentinel the engine retries on.
func mapErrno(err error) error {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return err
	}

	switch errno {
	case unix.ENODEV, unix.EBADF, unix.ENOENT:
		return fmt.Errorf("%w: %w", ddc.ErrTransportGone, err)
	case unix.ENXIO, unix.EREMOTEIO, unix.ETIMEDOUT, unix.EAGAIN, unix.EIO:
		return fmt.Errorf("%w: %w", ddc.ErrTimeout, err)
	default:
		return err
	}
}

// Buses returns the paths matching DefaultPattern in numeric order.
func Buses() ([]string, error) {
	return glob(DefaultPattern)
}

func glob(pattern string) ([]string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("i2cdev: glob %q: %w", pattern, err)
	}
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) < len(paths[j])
		}
		return paths[i] < paths[j]
	})
	return paths, nil
}

// Enumerator opens every adapter matching Pattern. It implements
// ddc.Enumerator. Adapters that cannot be opened are skipped; an error is
// returned only when none could be opened.
type Enumerator struct {
	// Pattern is the glob of device paths (DefaultPattern if empty)
	Pattern string
}

// Displays implements ddc.Enumerator.
func (en Enumerator) Displays() ([]ddc.Transport, error) {
	pattern := en.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	paths, err := glob(pattern)
	if err != nil {
		return nil, err
	}

	var (
		out     []ddc.Transport
		lastErr error
	)
	for _, path := range paths {
		bus, err := Open(path)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, bus)
	}

	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}
