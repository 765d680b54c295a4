package models

import "time"

// Channel names of the refrigeration telemetry schema. The classifier is
// prompted with exactly this list, and every field it emits is checked against
// it before a query is built.
const (
	ChannelFridgeTemperature     = "fridge_temperature"
	ChannelFreezerTemperature    = "freezer_temperature"
	ChannelEvaporatorCoilTemp    = "evaporator_coil_temperature"
	ChannelAirHumidity           = "air_humidity"
	ChannelRefrigerantPressure   = "refrigerant_pressure"
	ChannelCompressorVibrationX  = "compressor_vibration_x"
	ChannelCompressorVibrationY  = "compressor_vibration_y"
	ChannelCompressorVibrationZ  = "compressor_vibration_z"
	ChannelCompressorVibration   = "compressor_vibration" // magnitude of the three axes
	ChannelCompressorCurrent     = "compressor_current"
	ChannelInputVoltage          = "input_voltage"
	ChannelPowerConsumption      = "power_consumption"
	ChannelGasLeakageLevel       = "gas_leakage_level"
	ChannelTemperatureDiff       = "temperature_diff"
	ChannelCompressorStatus      = "compressor_status"
	ChannelDoorOpen              = "door_open"
)

// NumericChannels lists every scalar measurement column, in schema order.
var NumericChannels = []string{
	ChannelFridgeTemperature,
	ChannelFreezerTemperature,
	ChannelEvaporatorCoilTemp,
	ChannelAirHumidity,
	ChannelRefrigerantPressure,
	ChannelCompressorVibrationX,
	ChannelCompressorVibrationY,
	ChannelCompressorVibrationZ,
	ChannelCompressorVibration,
	ChannelCompressorCurrent,
	ChannelInputVoltage,
	ChannelPowerConsumption,
	ChannelGasLeakageLevel,
	ChannelTemperatureDiff,
}

// BooleanChannels lists the on/off status columns.
var BooleanChannels = []string{
	ChannelCompressorStatus,
	ChannelDoorOpen,
}

var numericChannelSet = toSet(NumericChannels)
var booleanChannelSet = toSet(BooleanChannels)

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// IsNumericChannel reports whether name is a known scalar channel.
func IsNumericChannel(name string) bool {
	_, ok := numericChannelSet[name]
	return ok
}

// IsBooleanChannel reports whether name is a known status channel.
func IsBooleanChannel(name string) bool {
	_, ok := booleanChannelSet[name]
	return ok
}

// IsChannel reports whether name is any known channel.
func IsChannel(name string) bool {
	return IsNumericChannel(name) || IsBooleanChannel(name)
}

// SensorReading is one timestamped measurement batch from a device.
// Channels are sparse: a missing map key means the column was NULL (or not
// selected), which is distinct from a zero value.
type SensorReading struct {
	Timestamp time.Time          `json:"timestamp"`
	DeviceID  string             `json:"device_id,omitempty"`
	Values    map[string]float64 `json:"values,omitempty"`
	Flags     map[string]bool    `json:"flags,omitempty"`
}

// Value returns the scalar for a channel and whether it was present.
func (r *SensorReading) Value(channel string) (float64, bool) {
	if r == nil || r.Values == nil {
		return 0, false
	}
	v, ok := r.Values[channel]
	return v, ok
}

// Flag returns the boolean for a status channel and whether it was present.
func (r *SensorReading) Flag(channel string) (bool, bool) {
	if r == nil || r.Flags == nil {
		return false, false
	}
	v, ok := r.Flags[channel]
	return v, ok
}
