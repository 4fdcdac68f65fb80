package main

import (
	"golang.org/x/sys/unix"

	"parvaos/internal/kconfig"
	"parvaos/internal/kerrno"
)

// FileDevice backs parvafs.BlockDevice with a regular host file, read and
// written with positioned syscalls (golang.org/x/sys/unix's Pread/Pwrite)
// rather than os.File's Seek+Read/Write pair, for the same reason the
// kernel's own internal/ata issues one fixed-size transfer per call: a
// sector read or write here never touches any other sector's bytes.
type FileDevice struct {
	fd int
}

// CreateFileDevice creates (or truncates) path and sizes it to hold
// sectors 512-byte sectors.
func CreateFileDevice(path string, sectors int64) (*FileDevice, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Ftruncate(fd, sectors*kconfig.SectorSize); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &FileDevice{fd: fd}, nil
}

// OpenFileDevice opens an existing image for reading and writing.
func OpenFileDevice(path string) (*FileDevice, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &FileDevice{fd: fd}, nil
}

func (d *FileDevice) ReadSector(lba uint32, buf []byte) kerrno.Err_t {
	n, err := unix.Pread(d.fd, buf, int64(lba)*kconfig.SectorSize)
	if err != nil || n != len(buf) {
		return kerrno.IoError
	}
	return 0
}

func (d *FileDevice) WriteSector(lba uint32, buf []byte) kerrno.Err_t {
	n, err := unix.Pwrite(d.fd, buf, int64(lba)*kconfig.SectorSize)
	if err != nil || n != len(buf) {
		return kerrno.IoError
	}
	return 0
}

// Close releases the underlying file descriptor.
func (d *FileDevice) Close() error {
	return unix.Close(d.fd)
}
