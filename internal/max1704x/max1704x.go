// Package max1704x drives the MAX17043/44/48/49 ModelGauge fuel gauges.
//
// The chips estimate state of charge internally; this driver only moves
// register values over I2C and converts them to volts, percent and
// percent-per-hour. All registers are 16-bit, transferred MSB first, with
// the second byte read from the next address.
//
// The driver keeps no register state: every getter is a fresh bus
// transaction, because the chip updates registers asynchronously as the
// battery charges and discharges. Register mutation is always a full 16-bit
// read-modify-write; the bus offers no multi-step atomicity, so a failed
// sequence leaves the register in an unknown state and the caller should
// retry from scratch.
//
// Transport failures surface as errors on every operation. The chip's own
// convention of returning 0xFFFF from an unreadable register is not carried
// into the API; a read either succeeds with the register value or fails
// with an error.
//
// The driver does not lock. A Dev expects to be the sole user of its bus
// handle; callers that share one must serialize externally.
package max1704x

import (
	"errors"
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
)

// ErrNotSupported is returned when an operation needs the extended register
// set (MAX17048/49) but the configured model lacks it.
var ErrNotSupported = errors.New("max1704x: not supported on this model")

// Opts configures a Dev.
type Opts struct {
	// Model selects the chip variant. Defaults to MAX17043.
	Model Model

	// FullScale overrides the analog full-scale voltage (5 or 10). Zero
	// derives it from the model: 10 for the 2-cell parts, 5 otherwise.
	FullScale int

	// Debug receives diagnostic messages when non-nil. Advisory only;
	// it never affects control flow or results.
	Debug *log.Logger
}

// Dev is a handle to one fuel gauge on an I2C bus.
type Dev struct {
	c     *i2c.Dev
	model Model
	vc    float64 // volts per VCELL count, fixed at construction
	debug *log.Logger
}

// New prepares a handle to a gauge at the family's fixed address. It does
// not touch the hardware; use Detect to probe for the device.
func New(bus i2c.Bus, opts Opts) (*Dev, error) {
	fs := opts.FullScale
	if fs == 0 {
		fs = opts.Model.fullScale()
	}
	if fs != 5 && fs != 10 {
		return nil, fmt.Errorf("max1704x: full scale must be 5 or 10, got %d", fs)
	}
	return &Dev{
		c:     &i2c.Dev{Addr: Addr, Bus: bus},
		model: opts.Model,
		vc:    voltsPerCount(fs),
		debug: opts.Debug,
	}, nil
}

// Model returns the chip variant the handle was configured for.
func (d *Dev) Model() Model { return d.model }

func (d *Dev) String() string { return d.model.String() }

// Detect probes for the device with an address-only transaction: the gauge
// acknowledges its address without a register access taking place.
func (d *Dev) Detect() error {
	if err := d.c.Tx(nil, nil); err != nil {
		return fmt.Errorf("max1704x: no device at 0x%02X: %w", Addr, err)
	}
	return nil
}

// Voltage returns the battery voltage in volts.
func (d *Dev) Voltage() (float64, error) {
	raw, err := d.readReg16(regVCell)
	if err != nil {
		return 0, err
	}
	v := decodeVoltage(raw, d.vc)
	d.logf("vcell raw=0x%04X -> %.5fV", raw, v)
	return v, nil
}

// SOC returns the state of charge in percent, as estimated by the chip's
// ModelGauge algorithm. Nominally 0-100, but the estimate can drift
// slightly outside that range and is passed through unclamped.
func (d *Dev) SOC() (float64, error) {
	raw, err := d.readReg16(regSOC)
	if err != nil {
		return 0, err
	}
	soc := decodeSOC(raw)
	d.logf("soc raw=0x%04X -> %.2f%%", raw, soc)
	return soc, nil
}

// Version returns the IC production version. All known parts report 3.
func (d *Dev) Version() (uint16, error) {
	return d.readReg16(regVersion)
}

// QuickStart restarts the SOC estimation from the current voltage. Useful
// at power-up when the initial guess is poor. MODE is write-only, so the
// command cannot be verified by reading back.
func (d *Dev) QuickStart() error {
	return d.writeReg16(regMode, cmdQuickStart)
}

// Sleep puts the gauge into sleep mode by setting the CONFIG sleep bit.
func (d *Dev) Sleep() error {
	return d.updateReg16(regConfig, 1<<configSleepBit, 0)
}

// Wake clears the CONFIG sleep bit. On parts where the bit does not
// round-trip there is no way to confirm the wake-up took effect.
func (d *Dev) Wake() error {
	return d.updateReg16(regConfig, 0, 1<<configSleepBit)
}

// Reset issues a power-on reset, returning every register to its default.
// The chip does not acknowledge the command in a readable way.
func (d *Dev) Reset() error {
	return d.writeReg16(regCommand, cmdPOR)
}

// ConfigRegister returns the raw 16-bit CONFIG register.
func (d *Dev) ConfigRegister() (uint16, error) {
	return d.readReg16(regConfig)
}

// Compensation returns the ModelGauge compensation byte (CONFIG high byte,
// factory default 0x97).
func (d *Dev) Compensation() (uint8, error) {
	cfg, err := d.readReg16(regConfig)
	if err != nil {
		return 0, err
	}
	return uint8(cfg >> 8), nil
}

// SetCompensation writes the compensation byte, preserving the rest of
// CONFIG. The datasheet offers no guidance on values; contact the vendor.
func (d *Dev) SetCompensation(rcomp uint8) error {
	cfg, err := d.readReg16(regConfig)
	if err != nil {
		return err
	}
	return d.writeReg16(regConfig, uint16(rcomp)<<8|cfg&0x00FF)
}

// Threshold returns the low-SOC alert threshold in percent (1-32).
func (d *Dev) Threshold() (uint8, error) {
	cfg, err := d.readReg16(regConfig)
	if err != nil {
		return 0, err
	}
	return decodeThreshold(cfg), nil
}

// SetThreshold sets the low-SOC alert threshold in percent. Values outside
// 1-32 are clamped to the nearest bound. The sleep and alert bits and the
// compensation byte are preserved.
func (d *Dev) SetThreshold(percent uint8) error {
	cfg, err := d.readReg16(regConfig)
	if err != nil {
		return err
	}
	return d.writeReg16(regConfig, cfg&^configThresholdMask|encodeThreshold(percent))
}

// Alert reports whether the low-SOC alert has triggered. With clear set, a
// triggered alert is also cleared, in a second transaction; without it the
// flag is left untouched so the caller can observe it again.
func (d *Dev) Alert(clear bool) (bool, error) {
	cfg, err := d.readReg16(regConfig)
	if err != nil {
		return false, err
	}
	alert := hasBit(cfg, configAlertBit)
	if alert && clear {
		if err := d.writeReg16(regConfig, clearBit(cfg, configAlertBit)); err != nil {
			return alert, err
		}
	}
	return alert, nil
}

// ClearAlert clears the low-SOC alert flag.
func (d *Dev) ClearAlert() error {
	return d.updateReg16(regConfig, 0, 1<<configAlertBit)
}

// readReg16 reads a 16-bit register: the address byte is written, then two
// bytes are read back, MSB first (the second byte comes from reg+1).
func (d *Dev) readReg16(reg byte) (uint16, error) {
	var buf [2]byte
	if err := d.c.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, fmt.Errorf("max1704x: read reg 0x%02X: %w", reg, err)
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

// writeReg16 writes a 16-bit register, MSB first. Any failure in the
// transaction is reported as one aggregate error; there is no partial-write
// recovery.
func (d *Dev) writeReg16(reg byte, v uint16) error {
	if err := d.c.Tx([]byte{reg, byte(v >> 8), byte(v)}, nil); err != nil {
		return fmt.Errorf("max1704x: write reg 0x%02X: %w", reg, err)
	}
	return nil
}

// updateReg16 is the read-modify-write primitive: read the full register,
// apply set then clear masks, write the full register back. A failed read
// short-circuits without writing.
func (d *Dev) updateReg16(reg byte, set, clear uint16) error {
	v, err := d.readReg16(reg)
	if err != nil {
		return err
	}
	return d.writeReg16(reg, (v|set)&^clear)
}

func (d *Dev) logf(format string, args ...any) {
	if d.debug != nil {
		d.debug.Printf("max1704x: "+format, args...)
	}
}
