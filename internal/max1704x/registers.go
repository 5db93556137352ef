package max1704x

// 7-bit I2C address, fixed in silicon for the whole family.
// Becomes 0x6C for write and 0x6D for read after the shift.
const Addr = 0x36

// Register map. Every register holds two bytes and spans two addresses;
// transactions always move both bytes, MSB first.
const (
	regVCell    = 0x02 // R - 12-bit A/D measurement of battery voltage
	regSOC      = 0x04 // R - 16-bit state of charge
	regMode     = 0x06 // W - special commands
	regVersion  = 0x08 // R - IC production version
	regHibRT    = 0x0A // R/W - hibernate thresholds (MAX17048/49)
	regConfig   = 0x0C // R/W - rcomp / sleep / alert / threshold
	regVAlert   = 0x14 // R/W - voltage alert min/max (MAX17048/49)
	regCRate    = 0x16 // R - charge rate, 0.208%/hr per LSB (MAX17048/49)
	regVResetID = 0x18 // R/W - reset voltage and factory ID (MAX17048/49)
	regStatus   = 0x1A // R/W - alert status flags (MAX17048/49)
	regCommand  = 0xFE // W - special commands
)

// Mode and command register values.
const (
	cmdQuickStart = 0x4000 // MODE: restart SOC estimation from current voltage
	cmdPOR        = 0x5400 // COMMAND: power-on reset, all registers to defaults
)

// CONFIG register fields.
const (
	configSleepBit      = 7
	configAlertBit      = 5
	configThresholdMask = 0x001F // ATHD, stores 32 - percent
)

// VRESET/ID register: bits 15..9 hold the 7-bit reset voltage (40mV/LSB),
// bit 8 disables the analog comparator, bits 7..0 are the factory ID.
const (
	vresetShift      = 9
	vresetMask       = 0x7F
	comparatorDisBit = 8
	vresetIDByteMask = 0x00FF
)

// Status reports the STATUS register alert flags (MAX17048/49 only). The
// flags live in the high byte of the register; values here use the register
// bit positions so they can be masked straight onto the raw word.
type Status uint16

const (
	StatusReset        Status = 1 << 8  // RI: set after power-up or reset
	StatusVoltageHigh  Status = 1 << 9  // VH: VCELL above VALRT.MAX
	StatusVoltageLow   Status = 1 << 10 // VL: VCELL below VALRT.MIN
	StatusVoltageReset Status = 1 << 11 // VR: battery removed and reattached
	StatusLowSOC       Status = 1 << 12 // HD: SOC crossed the ATHD threshold
	StatusChange       Status = 1 << 13 // SC: SOC changed by at least 1%
)

// statusEnVRBit enables assertion of the ALRT pin on voltage-reset events.
const statusEnVRBit = 14

// statusFlagsMask covers the six alert flags.
const statusFlagsMask Status = StatusReset | StatusVoltageHigh | StatusVoltageLow |
	StatusVoltageReset | StatusLowSOC | StatusChange

// Has reports whether all bits of flag are set.
func (s Status) Has(flag Status) bool { return s&flag == flag }

// Model selects a member of the fuel-gauge family. The parts share the
// register map and bus address; they differ in analog full scale and in
// whether the extended register set (HIBRT, VALRT, CRATE, VRESET/ID,
// STATUS) is present.
type Model uint8

const (
	MAX17043 Model = iota // 1-cell, 5V full scale
	MAX17044              // 2-cell, 10V full scale
	MAX17048              // 1-cell, extended registers
	MAX17049              // 2-cell, extended registers
)

// Extended reports whether the model carries the extended register set.
func (m Model) Extended() bool { return m == MAX17048 || m == MAX17049 }

func (m Model) fullScale() int {
	if m == MAX17044 || m == MAX17049 {
		return 10
	}
	return 5
}

func (m Model) String() string {
	switch m {
	case MAX17043:
		return "MAX17043"
	case MAX17044:
		return "MAX17044"
	case MAX17048:
		return "MAX17048"
	case MAX17049:
		return "MAX17049"
	}
	return "MAX1704x"
}

// ParseModel maps a configuration string ("max17048", "MAX17043", ...) to a
// Model.
func ParseModel(s string) (Model, bool) {
	switch s {
	case "max17043", "MAX17043":
		return MAX17043, true
	case "max17044", "MAX17044":
		return MAX17044, true
	case "max17048", "MAX17048":
		return MAX17048, true
	case "max17049", "MAX17049":
		return MAX17049, true
	}
	return 0, false
}
