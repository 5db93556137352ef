package max1704x

import "fmt"

// Operations on the extended register set (MAX17048/49 only). Each call
// checks the configured model first and fails with ErrNotSupported on the
// base parts, whose register map simply ends at CONFIG.

func (d *Dev) requireExtended(op string) error {
	if !d.model.Extended() {
		return fmt.Errorf("%s on %s: %w", op, d.model, ErrNotSupported)
	}
	return nil
}

// SoftReset issues the same power-on-reset command as Reset. The separate
// name reflects the MAX17048/49 behavior, where the command register is
// shared with other functions and the part rejoins the bus on its own
// after resetting.
func (d *Dev) SoftReset() error {
	if err := d.requireExtended("soft reset"); err != nil {
		return err
	}
	return d.writeReg16(regCommand, cmdPOR)
}

// ChangeRate returns the charge or discharge rate in percent per hour.
// Positive means charging.
func (d *Dev) ChangeRate() (float64, error) {
	if err := d.requireExtended("change rate"); err != nil {
		return 0, err
	}
	raw, err := d.readReg16(regCRate)
	if err != nil {
		return 0, err
	}
	rate := decodeRate(raw)
	d.logf("crate raw=0x%04X -> %+.3f%%/hr", raw, rate)
	return rate, nil
}

// ID returns the 8 OTP bits set at the factory, usable to distinguish cell
// types in production. Writes to these bits are ignored by the chip.
func (d *Dev) ID() (uint8, error) {
	if err := d.requireExtended("read ID"); err != nil {
		return 0, err
	}
	v, err := d.readReg16(regVResetID)
	if err != nil {
		return 0, err
	}
	return uint8(v & vresetIDByteMask), nil
}

// ResetVoltage returns the 7-bit VRESET code (40mV per bit) that sets the
// comparator threshold for detecting battery removal and reinsertion.
func (d *Dev) ResetVoltage() (uint8, error) {
	if err := d.requireExtended("read reset voltage"); err != nil {
		return 0, err
	}
	v, err := d.readReg16(regVResetID)
	if err != nil {
		return 0, err
	}
	return decodeResetVoltage(v), nil
}

// SetResetVoltage writes the 7-bit VRESET code, preserving the comparator
// bit and the read-only ID byte. Codes above 127 are truncated to 7 bits.
func (d *Dev) SetResetVoltage(code uint8) error {
	if err := d.requireExtended("set reset voltage"); err != nil {
		return err
	}
	v, err := d.readReg16(regVResetID)
	if err != nil {
		return err
	}
	v = v&^(vresetMask<<vresetShift) | encodeResetVoltage(code)
	return d.writeReg16(regVResetID, v)
}

// EnableComparator re-enables the battery-removal comparator (the power-up
// default; it draws an extra 0.5µA in hibernate).
func (d *Dev) EnableComparator() error {
	if err := d.requireExtended("enable comparator"); err != nil {
		return err
	}
	return d.updateReg16(regVResetID, 0, 1<<comparatorDisBit)
}

// DisableComparator disables the battery-removal comparator to save 0.5µA
// in hibernate mode.
func (d *Dev) DisableComparator() error {
	if err := d.requireExtended("disable comparator"); err != nil {
		return err
	}
	return d.updateReg16(regVResetID, 1<<comparatorDisBit, 0)
}

// Status returns the alert flags from the STATUS register. Flags latch
// until explicitly cleared; reading does not clear them.
func (d *Dev) Status() (Status, error) {
	if err := d.requireExtended("read status"); err != nil {
		return 0, err
	}
	v, err := d.readReg16(regStatus)
	if err != nil {
		return 0, err
	}
	return Status(v) & statusFlagsMask, nil
}

// ClearStatus clears the given alert flags, leaving the others latched.
func (d *Dev) ClearStatus(flags Status) error {
	if err := d.requireExtended("clear status"); err != nil {
		return err
	}
	return d.updateReg16(regStatus, 0, uint16(flags&statusFlagsMask))
}

// IsReset reports the RI flag: set after power-up or reset until cleared.
func (d *Dev) IsReset() (bool, error) { return d.statusFlag(StatusReset) }

// IsVoltageHigh reports the VH flag: VCELL rose above VALRT.MAX.
func (d *Dev) IsVoltageHigh() (bool, error) { return d.statusFlag(StatusVoltageHigh) }

// IsVoltageLow reports the VL flag: VCELL fell below VALRT.MIN.
func (d *Dev) IsVoltageLow() (bool, error) { return d.statusFlag(StatusVoltageLow) }

// IsVoltageReset reports the VR flag: the battery was removed and
// reattached (see SetResetVoltage).
func (d *Dev) IsVoltageReset() (bool, error) { return d.statusFlag(StatusVoltageReset) }

// IsLow reports the HD flag: SOC crossed the ATHD threshold (see
// SetThreshold).
func (d *Dev) IsLow() (bool, error) { return d.statusFlag(StatusLowSOC) }

// IsChange reports the SC flag: SOC changed by at least 1%.
func (d *Dev) IsChange() (bool, error) { return d.statusFlag(StatusChange) }

func (d *Dev) statusFlag(flag Status) (bool, error) {
	s, err := d.Status()
	if err != nil {
		return false, err
	}
	return s.Has(flag), nil
}

// EnableAlert makes the ALRT pin assert on voltage-reset events, under the
// conditions set by SetResetVoltage.
func (d *Dev) EnableAlert() error {
	if err := d.requireExtended("enable alert"); err != nil {
		return err
	}
	return d.updateReg16(regStatus, 1<<statusEnVRBit, 0)
}

// DisableAlert stops the ALRT pin asserting on voltage-reset events.
func (d *Dev) DisableAlert() error {
	if err := d.requireExtended("disable alert"); err != nil {
		return err
	}
	return d.updateReg16(regStatus, 0, 1<<statusEnVRBit)
}

// AlertVoltageWindow returns the VALRT window in volts. VCELL outside
// [min, max] sets the VL/VH flags and asserts the ALRT pin.
func (d *Dev) AlertVoltageWindow() (min, max float64, err error) {
	if err := d.requireExtended("read alert window"); err != nil {
		return 0, 0, err
	}
	v, err := d.readReg16(regVAlert)
	if err != nil {
		return 0, 0, err
	}
	return decodeAlertVoltage(uint8(v >> 8)), decodeAlertVoltage(uint8(v)), nil
}

// SetAlertMinVoltage sets the lower VALRT bound in volts (20mV steps,
// rounded, clamped to 0-5.1V), preserving the upper bound.
func (d *Dev) SetAlertMinVoltage(v float64) error {
	if err := d.requireExtended("set alert min"); err != nil {
		return err
	}
	cur, err := d.readReg16(regVAlert)
	if err != nil {
		return err
	}
	return d.writeReg16(regVAlert, uint16(encodeAlertVoltage(v))<<8|cur&0x00FF)
}

// SetAlertMaxVoltage sets the upper VALRT bound in volts, preserving the
// lower bound.
func (d *Dev) SetAlertMaxVoltage(v float64) error {
	if err := d.requireExtended("set alert max"); err != nil {
		return err
	}
	cur, err := d.readReg16(regVAlert)
	if err != nil {
		return err
	}
	return d.writeReg16(regVAlert, cur&0xFF00|uint16(encodeAlertVoltage(v)))
}

// HibernateThresholds holds the HIBRT register contents in physical units.
type HibernateThresholds struct {
	// HibRate is the charge/discharge rate in %/hr below which the chip
	// enters hibernate (0.208%/hr steps).
	HibRate float64
	// ActVoltage is the cell voltage change in volts that wakes the chip
	// from hibernate (1.25mV steps).
	ActVoltage float64
}

// HibernateThresholds returns the current hibernate entry/exit thresholds.
func (d *Dev) HibernateThresholds() (HibernateThresholds, error) {
	if err := d.requireExtended("read hibernate thresholds"); err != nil {
		return HibernateThresholds{}, err
	}
	v, err := d.readReg16(regHibRT)
	if err != nil {
		return HibernateThresholds{}, err
	}
	return HibernateThresholds{
		HibRate:    float64(v>>8) * hibThrLSB,
		ActVoltage: float64(v&0xFF) * hibActLSB,
	}, nil
}

// SetHibernateThresholds writes both hibernate thresholds, rounding to the
// register resolution and clamping to the representable range.
func (d *Dev) SetHibernateThresholds(t HibernateThresholds) error {
	if err := d.requireExtended("set hibernate thresholds"); err != nil {
		return err
	}
	hib := clampByte(t.HibRate / hibThrLSB)
	act := clampByte(t.ActVoltage / hibActLSB)
	return d.writeReg16(regHibRT, uint16(hib)<<8|uint16(act))
}

// DisableHibernate zeroes HIBRT so the chip never hibernates.
func (d *Dev) DisableHibernate() error {
	if err := d.requireExtended("disable hibernate"); err != nil {
		return err
	}
	return d.writeReg16(regHibRT, 0x0000)
}

func clampByte(v float64) uint8 {
	code := int(v + 0.5)
	if code < 0 {
		code = 0
	}
	if code > 0xFF {
		code = 0xFF
	}
	return uint8(code)
}
