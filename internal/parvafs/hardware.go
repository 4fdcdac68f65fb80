package parvafs

import (
	"parvaos/internal/ata"
	"parvaos/internal/kerrno"
)

// AtaDevice adapts one probed ata.Device to BlockDevice.
type AtaDevice struct {
	Controller *ata.Controller
	Device     ata.Device
}

func (a AtaDevice) ReadSector(lba uint32, buf []byte) kerrno.Err_t {
	return a.Controller.Read(a.Device, lba, buf)
}

func (a AtaDevice) WriteSector(lba uint32, buf []byte) kerrno.Err_t {
	return a.Controller.Write(a.Device, lba, buf)
}
