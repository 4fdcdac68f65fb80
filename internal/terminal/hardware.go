package terminal

import (
	"parvaos/internal/cpu"
	"parvaos/internal/kconfig"
	"parvaos/internal/kio"
)

const (
	kbdControllerPort = 0x64
	kbdPulseReset      = 0xFE
)

// HardwareRebooter pulses the 8042 keyboard controller's reset line.
type HardwareRebooter struct{}

func (HardwareRebooter) Reboot() {
	kio.Ports.Out8(kbdControllerPort, kbdPulseReset)
	for {
		cpu.Halt()
	}
}

// HardwareShutdowner requests exit via QEMU's isa-debug-exit device,
// falling back to parking the CPU if the emulator ignores the write
// (e.g. real hardware, or a differently configured emulator).
type HardwareShutdowner struct{}

func (HardwareShutdowner) Shutdown() {
	kio.Ports.Out8(kconfig.QEMUExitPort, kconfig.QEMUExitSuccess)
	for {
		cpu.Halt()
	}
}
