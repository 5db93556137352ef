package max1704x

// Pure conversions between raw register words and physical quantities.
// Nothing here touches the bus.

// LSB weights, from the datasheet.
const (
	vcellLSB5V  = 0.00125 // V per VCELL count at 5V full scale
	vcellLSB10V = 0.0025  // V per VCELL count at 10V full scale
	crateLSB    = 0.208   // %/hr per CRATE count, signed
	vresetLSB   = 0.040   // V per VRESET code
	valertLSB   = 0.020   // V per VALRT code
	hibThrLSB   = 0.208   // %/hr per HIBRT.HibThr count
	hibActLSB   = 0.00125 // V per HIBRT.ActThr count
)

func voltsPerCount(fullScale int) float64 {
	if fullScale == 10 {
		return vcellLSB10V
	}
	return vcellLSB5V
}

// decodeVoltage converts a raw VCELL word. Only the top 12 bits carry the
// A/D count; the value scales linearly, so it is monotonic in raw.
func decodeVoltage(raw uint16, vc float64) float64 {
	return float64(raw>>4) * vc
}

// decodeSOC converts a raw SOC word: whole percent in the high byte,
// 1/256 percent per LSB in the low byte. The chip may report slightly
// outside [0,100]; values pass through unclamped.
func decodeSOC(raw uint16) float64 {
	return float64(raw>>8) + float64(raw&0xFF)/256.0
}

// decodeRate converts a raw CRATE word, a signed two's-complement count.
// Positive means charging, negative discharging.
func decodeRate(raw uint16) float64 {
	return float64(int16(raw)) * crateLSB
}

// encodeThreshold converts an alert threshold percentage to the 5-bit ATHD
// field, which stores 32 - percent. Out-of-range input is clamped to [1,32].
func encodeThreshold(percent uint8) uint16 {
	if percent < 1 {
		percent = 1
	}
	if percent > 32 {
		percent = 32
	}
	return uint16(32-percent) & configThresholdMask
}

// decodeThreshold is the inverse of encodeThreshold.
func decodeThreshold(field uint16) uint8 {
	return uint8(32 - (field & configThresholdMask))
}

func encodeResetVoltage(code uint8) uint16 {
	return uint16(code&vresetMask) << vresetShift
}

func decodeResetVoltage(raw uint16) uint8 {
	return uint8(raw>>vresetShift) & vresetMask
}

func encodeAlertVoltage(v float64) uint8 {
	code := int(v/valertLSB + 0.5)
	if code < 0 {
		code = 0
	}
	if code > 0xFF {
		code = 0xFF
	}
	return uint8(code)
}

func decodeAlertVoltage(code uint8) float64 {
	return float64(code) * valertLSB
}

// Single-bit helpers for read-modify-write sequences. The full register is
// always written back; the chip has no partial-register writes.

func setBit(v uint16, bit uint) uint16   { return v | 1<<bit }
func clearBit(v uint16, bit uint) uint16 { return v &^ (1 << bit) }
func hasBit(v uint16, bit uint) bool     { return v&(1<<bit) != 0 }
