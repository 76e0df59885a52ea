// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/posture_node/internal/imu"
)

const wakeDelay = 100 * time.Millisecond

// MPU6050 reads acceleration and die temperature with plain register
// transactions.
//
// The read buffers live as long as the device. A failed transaction leaves the
// previous bytes in place, so ReadRaw still returns a sample (stale, or zero
// before the first good read) alongside the error.
type MPU6050 struct {
	dev   *i2c.Dev
	accel [6]byte
	temp  [2]byte
}

// NewMPU6050 returns a device at addr on bus. Call Wake before reading.
func NewMPU6050(bus i2c.Bus, addr uint16) *MPU6050 {
	return &MPU6050{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// Wake clears PWR_MGMT_1 so the chip leaves sleep mode, then waits for the
// sensors to settle.
func (m *MPU6050) Wake() error {
	if err := m.dev.Tx([]byte{regPwrMgmt1, 0x00}, nil); err != nil {
		return fmt.Errorf("mpu6050 0x%02X: write %s: %w", m.dev.Addr, registerName(regPwrMgmt1), err)
	}
	time.Sleep(wakeDelay)
	return nil
}

// ReadRaw reads the acceleration block and then the temperature block.
func (m *MPU6050) ReadRaw() (imu.Raw, error) {
	var errs []error
	if err := m.dev.Tx([]byte{regAccelXoutH}, m.accel[:]); err != nil {
		errs = append(errs, fmt.Errorf("mpu6050 0x%02X: read %s: %w", m.dev.Addr, registerName(regAccelXoutH), err))
	}
	if err := m.dev.Tx([]byte{regTempOutH}, m.temp[:]); err != nil {
		errs = append(errs, fmt.Errorf("mpu6050 0x%02X: read %s: %w", m.dev.Addr, registerName(regTempOutH), err))
	}

	return imu.Raw{
		Ax:      int16(binary.BigEndian.Uint16(m.accel[0:2])),
		Ay:      int16(binary.BigEndian.Uint16(m.accel[2:4])),
		Az:      int16(binary.BigEndian.Uint16(m.accel[4:6])),
		TempRaw: int16(binary.BigEndian.Uint16(m.temp[:])),
	}, errors.Join(errs...)
}

// WhoAmI returns the identity register; 0x68 on a genuine MPU-6050.
func (m *MPU6050) WhoAmI() (byte, error) {
	var id [1]byte
	if err := m.dev.Tx([]byte{regWhoAmI}, id[:]); err != nil {
		return 0, fmt.Errorf("mpu6050 0x%02X: read %s: %w", m.dev.Addr, registerName(regWhoAmI), err)
	}
	return id[0], nil
}
