// Package mcp2221 implements ddc.Transport over a Microchip MCP2221 USB to
// I2C bridge wired to the DDC pins of a display connector.
//
// The bridge speaks 64-byte HID reports. A bus write is one I2C Write Data
// command; a bus read is an I2C Read Data command followed by Get I2C Data
// to collect the bytes the engine buffered.
//
//	adapter, err := mcp2221.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adapter.Close()
//	engine := ddc.New(adapter)
package mcp2221

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sstallion/go-hid"

	"github.com/moffa90/go-ddcci/ddc"
)

// Default USB identifiers of the MCP2221 and MCP2221A.
const (
	VendorID  = 0x04D8
	ProductID = 0x00DD
)

// HID command codes.
const (
	cmdStatus     = 0x10
	cmdI2CGetData = 0x40
	cmdI2CWrite   = 0x90
	cmdI2CRead    = 0x91
)

const (
	reportSize = 64

	// maxTransfer is the largest I2C write carried by one report
	maxTransfer = reportSize - 4

	statusOK       = 0x00
	statusBusy     = 0x01
	getDataError   = 0x41
	cancelTransfer = 0x10
	readFailed     = 127
)

// DefaultChipDelay is the time the bridge needs to finish an I2C
// transfer before its result can be collected.
const DefaultChipDelay = 5 * time.Millisecond

// Device is the part of *hid.Device used by Adapter.
type Device interface {
	Write(p []byte) (int, error)
	ReadWithTimeout(p []byte, timeout time.Duration) (int, error)
	Close() error
}

// Adapter is an MCP2221 bridge. It is safe for concurrent use.
type Adapter struct {
	mu        sync.Mutex
	dev       Device
	name      string
	chipDelay time.Duration
	closed    bool

	// request carries a leading zero report ID.
	request  [reportSize + 1]byte
	response [reportSize]byte
}

var (
	initOnce sync.Once
	initErr  error
)

func initHID() error {
	initOnce.Do(func() {
		initErr = hid.Init()
	})
	return initErr
}

// New wraps an open HID device.
func New(dev Device, name string) *Adapter {
	return &Adapter{dev: dev, name: name, chipDelay: DefaultChipDelay}
}

// Open opens the first MCP2221 with the default USB identifiers.
func Open() (*Adapter, error) {
	if err := initHID(); err != nil {
		return nil, fmt.Errorf("mcp2221: init hid: %w", err)
	}
	dev, err := hid.OpenFirst(VendorID, ProductID)
	if err != nil {
		return nil, fmt.Errorf("mcp2221: open %04x:%04x: %v: %w", VendorID, ProductID, err, ddc.ErrTransportGone)
	}
	return New(dev, fmt.Sprintf("mcp2221 %04x:%04x", VendorID, ProductID)), nil
}

// OpenPath opens the bridge at a platform HID path.
func OpenPath(path string) (*Adapter, error) {
	if err := initHID(); err != nil {
		return nil, fmt.Errorf("mcp2221: init hid: %w", err)
	}
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("mcp2221: open %s: %v: %w", path, err, ddc.ErrTransportGone)
	}
	return New(dev, "mcp2221 "+path), nil
}

// SetChipDelay changes the wait between starting a read and collecting its data.
func (a *Adapter) SetChipDelay(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chipDelay = d
}

// Description implements ddc.Describer.
func (a *Adapter) Description() string {
	return a.name
}

// Close releases the HID device. Later calls fail with ddc.ErrTransportGone.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	return a.dev.Close()
}

// Write implements ddc.Transport.
func (a *Adapter) Write(addr byte, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(data) > maxTransfer {
		return fmt.Errorf("mcp2221: write of %d bytes exceeds %d", len(data), maxTransfer)
	}

	a.reset(cmdI2CWrite, len(data), addr<<1)
	copy(a.request[5:], data)
	if err := a.roundTrip(100 * time.Millisecond); err != nil {
		return fmt.Errorf("mcp2221: write to 0x%02X: %w", addr, err)
	}
	if a.response[1] != statusOK {
		a.cancel()
		return fmt.Errorf("mcp2221: write to 0x%02X: bus busy: %w", addr, ddc.ErrTimeout)
	}
	return nil
}

// Read implements ddc.Transport.
func (a *Adapter) Read(addr byte, maxBytes int, timeout time.Duration) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if maxBytes > maxTransfer {
		maxBytes = maxTransfer
	}

	a.reset(cmdI2CRead, maxBytes, addr<<1|1)
	if err := a.roundTrip(timeout); err != nil {
		return nil, fmt.Errorf("mcp2221: read from 0x%02X: %w", addr, err)
	}
	if a.response[1] != statusOK {
		a.cancel()
		return nil, fmt.Errorf("mcp2221: read from 0x%02X: bus busy: %w", addr, ddc.ErrTimeout)
	}

	if a.chipDelay > 0 {
		time.Sleep(a.chipDelay)
	}

	a.reset(cmdI2CGetData, 0, 0)
	if err := a.roundTrip(timeout); err != nil {
		return nil, fmt.Errorf("mcp2221: collect data from 0x%02X: %w", addr, err)
	}
	if a.response[1] == getDataError || a.response[3] == readFailed {
		a.cancel()
		return nil, fmt.Errorf("mcp2221: no data from 0x%02X: %w", addr, ddc.ErrTimeout)
	}

	n := min(int(a.response[3]), maxBytes)
	return append([]byte(nil), a.response[4:4+n]...), nil
}

// reset clears both reports and fills the command header. Caller holds a.mu.
func (a *Adapter) reset(cmd byte, length int, addr byte) {
	clear(a.request[:])
	clear(a.response[:])
	a.request[1] = cmd
	if cmd == cmdI2CWrite || cmd == cmdI2CRead {
		a.request[2] = byte(length)
		a.request[3] = byte(length >> 8)
		a.request[4] = addr
	}
}

// cancel aborts a stuck transfer so the next command finds the bus idle.
// Caller holds a.mu.
func (a *Adapter) cancel() {
	a.reset(cmdStatus, 0, 0)
	a.request[3] = cancelTransfer
	_ = a.roundTrip(100 * time.Millisecond)
}

// roundTrip sends the request report and reads the response. Caller holds a.mu.
func (a *Adapter) roundTrip(timeout time.Duration) error {
	if a.closed {
		return ddc.ErrTransportGone
	}

	n, err := a.dev.Write(a.request[:])
	if err != nil {
		return fmt.Errorf("hid write: %v: %w", err, ddc.ErrTransportGone)
	}
	if n != len(a.request) {
		return fmt.Errorf("hid short write %d of %d: %w", n, len(a.request), ddc.ErrTimeout)
	}

	n, err = a.dev.ReadWithTimeout(a.response[:], timeout)
	switch {
	case errors.Is(err, hid.ErrTimeout) || (err == nil && n == 0):
		return fmt.Errorf("hid read after %s: %w", timeout, ddc.ErrTimeout)
	case err != nil:
		return fmt.Errorf("hid read: %v: %w", err, ddc.ErrTransportGone)
	case a.response[0] != a.request[1]:
		return fmt.Errorf("hid reply for command 0x%02X, sent 0x%02X: %w", a.response[0], a.request[1], ddc.ErrTimeout)
	}
	return nil
}

// Enumerator opens every MCP2221 attached to the host. It implements
// ddc.Enumerator.
type Enumerator struct {
	// VendorID and ProductID select the bridges (defaults if zero)
	VendorID  uint16
	ProductID uint16
}

// Displays implements ddc.Enumerator.
func (en Enumerator) Displays() ([]ddc.Transport, error) {
	if err := initHID(); err != nil {
		return nil, fmt.Errorf("mcp2221: init hid: %w", err)
	}

	vid, pid := en.VendorID, en.ProductID
	if vid == 0 {
		vid = VendorID
	}
	if pid == 0 {
		pid = ProductID
	}

	var paths []string
	err := hid.Enumerate(vid, pid, func(info *hid.DeviceInfo) error {
		paths = append(paths, info.Path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mcp2221: enumerate: %w", err)
	}

	var (
		out     []ddc.Transport
		lastErr error
	)
	for _, path := range paths {
		adapter, err := OpenPath(path)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, adapter)
	}

	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}
