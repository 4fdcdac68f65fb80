package display

import (
	"unsafe"

	"parvaos/internal/kconfig"
)

// HardwareBuffer writes directly into the memory-mapped VGA text buffer
// at kconfig.VGATextAddr, 2 bytes per cell (ASCII then attribute), the
// same unsafe-pointer-over-a-fixed-physical-address technique
// internal/mem uses for the direct map.
type HardwareBuffer struct{}

func (HardwareBuffer) WriteCell(index int, ch byte, attr byte) {
	base := (*[1 << 20]byte)(unsafe.Pointer(kconfig.VGATextAddr))
	base[index*2] = ch
	base[index*2+1] = attr
}
