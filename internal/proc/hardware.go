package proc

import "parvaos/internal/cpu"

// HardwareSwitcher implements Switcher against the real cooperative
// stack switch primitive.
type HardwareSwitcher struct{}

func (HardwareSwitcher) Switch(savedSP *uintptr, newSP uintptr) {
	cpu.SwitchStack(savedSP, newSP)
}
