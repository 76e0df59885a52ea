// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// MPU-6050 registers touched by the node.
const (
	regAccelXoutH byte = 0x3B // 6 bytes: X, Y, Z big-endian
	regTempOutH   byte = 0x41 // 2 bytes big-endian
	regPwrMgmt1   byte = 0x6B // bit 6 SLEEP, set at power-on
	regWhoAmI     byte = 0x75
)

// MPU6050Addr is the default 7-bit address with AD0 tied low.
const MPU6050Addr uint16 = 0x68

var registerNames = map[byte]string{
	regAccelXoutH: "ACCEL_XOUT_H",
	regTempOutH:   "TEMP_OUT_H",
	regPwrMgmt1:   "PWR_MGMT_1",
	regWhoAmI:     "WHO_AM_I",
}

// registerName formats a register for log and error messages.
func registerName(reg byte) string {
	if name, ok := registerNames[reg]; ok {
		return fmt.Sprintf("%s (0x%02X)", name, reg)
	}
	return fmt.Sprintf("0x%02X", reg)
}
