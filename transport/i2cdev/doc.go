// Package i2cdev implements ddc.Transport over the Linux i2c-dev interface.
//
// Every graphics connector with DDC exposes an I2C adapter as
// /dev/i2c-N once the i2c-dev module is loaded. The DDC/CI endpoint of the
// attached display answers at address 0x37.
//
// # Usage
//
//	bus, err := i2cdev.Open("/dev/i2c-4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bus.Close()
//
//	engine := ddc.New(bus)
//	reply, err := engine.GetVCPFeature(ctx, protocol.VCPBrightness)
//
// To try every adapter:
//
//	engines, err := ddc.Discover(i2cdev.Enumerator{})
//
// # Error Handling
//
// Errors wrap ddc.ErrTransportGone when the adapter disappears (ENODEV,
// EBADF, ENOENT, or a closed Bus) and ddc.ErrTimeout when the display does
// not acknowledge (ENXIO, EREMOTEIO, ETIMEDOUT, EAGAIN, EIO). The engine
// retries the latter and gives up immediately on the former.
package i2cdev
