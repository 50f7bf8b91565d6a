// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package internal

import (
	"math"

	"periph.io/x/periph/conn/physic"
)

// Success is the status returned by the vendor SDK calls that succeeded.
//
// Any other value is a failure; the SDK doesn't document the codes.
const Success = 1

// MaxSlots is the number of USB slots the vendor SDK scans, numbered 0 to 31.
const MaxSlots = 32

// RawUnit is a temperature as returned by the engine cores calibration
// table: centi-Celsius offset by 50°C so that it fits an uint16.
//
// It is an implementation detail of the protocol.
type RawUnit uint16

// rawZeroCelsius is the RawUnit encoding of 0°C.
const rawZeroCelsius = 5000

// ToT decodes the raw unit. Each increment is 0.01°C.
func (r RawUnit) ToT() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(int64(r)-rawZeroCelsius)*10*physic.MilliKelvin
}

// CelsiusToT converts a float Celsius value as returned by the Q1/V1 cores.
//
// It is rounded to the millikelvin, which is well below the sensor NETD.
func CelsiusToT(c float32) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(math.Round(float64(c)*1000))*physic.MilliKelvin
}

// ClampU16 rounds a float sample into the uint16 domain.
func ClampU16(v float32) uint16 {
	switch {
	case v != v || v <= 0:
		// NaN or negative.
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v + 0.5)
	}
}
