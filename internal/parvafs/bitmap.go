package parvafs

import (
	"parvaos/internal/kconfig"
	"parvaos/internal/kerrno"
)

// Bitmap tracks data-block allocation: bit i of bitmap sector b covers
// data block DataAddrOffset + b*BitsPerBitmapSector + i (spec.md §3).
// Each sector's first 4 bytes are a reserved header, mandated zero by
// spec.md §9 even though the bits it describes live in the same sector.
type Bitmap struct {
	dev BlockDevice
}

func (bm *Bitmap) decompose(addr uint32) (sector uint32, bit uint32) {
	idx := addr - kconfig.DataAddrOffset
	return idx / kconfig.BitsPerBitmapSector, idx % kconfig.BitsPerBitmapSector
}

func (bm *Bitmap) sectorLBA(sector uint32) uint32 {
	return kconfig.SuperblockAddr + 2 + sector
}

// IsFree reports whether addr's bit is clear.
func (bm *Bitmap) IsFree(addr uint32) (bool, kerrno.Err_t) {
	sector, bit := bm.decompose(addr)
	b, err := readBlock(bm.dev, bm.sectorLBA(sector))
	if err != 0 {
		return false, err
	}
	byteIdx, bitIdx := bit/8, bit%8
	return b.Payload()[byteIdx]&(1<<bitIdx) == 0, 0
}

// Alloc sets addr's bit, marking the block in use.
func (bm *Bitmap) Alloc(addr uint32) kerrno.Err_t {
	return bm.setBit(addr, true)
}

// Free clears addr's bit, releasing the block.
func (bm *Bitmap) Free(addr uint32) kerrno.Err_t {
	return bm.setBit(addr, false)
}

func (bm *Bitmap) setBit(addr uint32, set bool) kerrno.Err_t {
	sector, bit := bm.decompose(addr)
	lba := bm.sectorLBA(sector)
	b, err := readBlock(bm.dev, lba)
	if err != 0 {
		return err
	}
	byteIdx, bitIdx := bit/8, bit%8
	if set {
		b.Payload()[byteIdx] |= 1 << bitIdx
	} else {
		b.Payload()[byteIdx] &^= 1 << bitIdx
	}
	return writeBlock(bm.dev, lba, b)
}

// NextFreeAddr linearly scans from bit 0 upward for the first clear bit
// (spec.md: "O(disk) worst case — acceptable at this scale") and returns
// the corresponding data block address.
func (bm *Bitmap) NextFreeAddr() (uint32, kerrno.Err_t) {
	for sector := uint32(0); sector < kconfig.BitmapSectors; sector++ {
		b, err := readBlock(bm.dev, bm.sectorLBA(sector))
		if err != 0 {
			return 0, err
		}
		payload := b.Payload()
		for byteIdx := 0; byteIdx < len(payload); byteIdx++ {
			if payload[byteIdx] == 0xFF {
				continue
			}
			for bitIdx := 0; bitIdx < 8; bitIdx++ {
				if payload[byteIdx]&(1<<bitIdx) == 0 {
					idx := sector*kconfig.BitsPerBitmapSector + uint32(byteIdx)*8 + uint32(bitIdx)
					return kconfig.DataAddrOffset + idx, 0
				}
			}
		}
	}
	return 0, kerrno.OutOfSpace
}

// SetCount reports how many bits are set across the whole bitmap, used
// by tests to check bitmap conservation (spec.md §8).
func (bm *Bitmap) SetCount() (int, kerrno.Err_t) {
	count := 0
	for sector := uint32(0); sector < kconfig.BitmapSectors; sector++ {
		b, err := readBlock(bm.dev, bm.sectorLBA(sector))
		if err != 0 {
			return 0, err
		}
		for _, byt := range b.Payload() {
			for bitIdx := 0; bitIdx < 8; bitIdx++ {
				if byt&(1<<bitIdx) != 0 {
					count++
				}
			}
		}
	}
	return count, 0
}
