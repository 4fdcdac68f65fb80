// Package parvafs implements the on-disk ParvaFS filesystem of spec.md
// §3/§4.8: a superblock, a block bitmap, and a chained-block data region
// holding directories and files. Field access on raw sector bytes
// follows the accessor pattern of Biscuit's fs.Superblock_t
// (biscuit/src/fs/super.go): typed getters/setters over a byte buffer
// rather than a parsed struct, since every buffer here is also the exact
// bytes handed to ata.Controller for a sector transfer.
package parvafs

import (
	"encoding/binary"

	"parvaos/internal/kconfig"
	"parvaos/internal/kerrno"
)

// BlockDevice is the narrow disk interface ParvaFS depends on, mirroring
// Biscuit's Disk_i (biscuit/src/fs/blk.go) but generalized from an async
// request-queue model down to this spec's synchronous one. hardware.go
// adapts a probed ata.Device to this interface; tests use an in-memory
// fake instead.
type BlockDevice interface {
	ReadSector(lba uint32, buf []byte) kerrno.Err_t
	WriteSector(lba uint32, buf []byte) kerrno.Err_t
}

// Block is one 512-byte sector, interpreted as spec.md's Chained mode:
// a big-endian next-block address followed by 508 bytes of payload.
type Block [kconfig.SectorSize]byte

// Next returns the chain's next block address, or 0 at the chain's end.
func (b *Block) Next() uint32 {
	return binary.BigEndian.Uint32(b[0:4])
}

// SetNext writes the chain's next block address.
func (b *Block) SetNext(addr uint32) {
	binary.BigEndian.PutUint32(b[0:4], addr)
}

// Payload returns the 508 bytes following the next-block header.
func (b *Block) Payload() []byte {
	return b[4:]
}

// readBlock loads the sector at addr into a fresh Block.
func readBlock(dev BlockDevice, addr uint32) (*Block, kerrno.Err_t) {
	var b Block
	if err := dev.ReadSector(addr, b[:]); err != 0 {
		return nil, err
	}
	return &b, 0
}

// writeBlock stores b back to its sector.
func writeBlock(dev BlockDevice, addr uint32, b *Block) kerrno.Err_t {
	return dev.WriteSector(addr, b[:])
}
