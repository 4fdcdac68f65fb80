package parvafs

import (
	"encoding/binary"

	"parvaos/internal/kconfig"
	"parvaos/internal/kerrno"
)

// FS is a mounted ParvaFS volume. There is never more than one mounted
// at a time in this kernel (spec.md §9's single top-level mutable slot
// for the FS mount), but FS itself carries no global state so tests can
// mount several independent fakes side by side.
type FS struct {
	dev      BlockDevice
	bitmap   Bitmap
	rootAddr uint32
}

// Mount reads the superblock sector and returns a mounted FS if the
// magic matches, or kerrno.NotMounted otherwise (spec.md §4.8 "Mount").
func Mount(dev BlockDevice) (*FS, kerrno.Err_t) {
	var hdr [kconfig.SectorSize]byte
	if err := dev.ReadSector(kconfig.SuperblockAddr, hdr[:]); err != 0 {
		return nil, err
	}
	if string(hdr[:len(kconfig.SuperblockMagic)]) != kconfig.SuperblockMagic {
		return nil, kerrno.NotMounted
	}
	return &FS{dev: dev, bitmap: Bitmap{dev: dev}, rootAddr: kconfig.DataAddrOffset}, 0
}

// Format writes the magic superblock, zeroes every bitmap sector (the
// "preferred" option spec.md §4.8 names over zeroing lazily on first
// touch), and allocates the zeroed root directory's starting block.
func Format(dev BlockDevice) (*FS, kerrno.Err_t) {
	var sb [kconfig.SectorSize]byte
	copy(sb[:], kconfig.SuperblockMagic)
	if err := dev.WriteSector(kconfig.SuperblockAddr, sb[:]); err != 0 {
		return nil, err
	}

	var zero [kconfig.SectorSize]byte
	for sector := uint32(0); sector < kconfig.BitmapSectors; sector++ {
		lba := kconfig.SuperblockAddr + 2 + sector
		if err := dev.WriteSector(lba, zero[:]); err != 0 {
			return nil, err
		}
	}

	fs := &FS{dev: dev, bitmap: Bitmap{dev: dev}, rootAddr: kconfig.DataAddrOffset}
	if err := fs.bitmap.Alloc(kconfig.DataAddrOffset); err != 0 {
		return nil, err
	}
	var root Block
	if err := writeBlock(dev, kconfig.DataAddrOffset, &root); err != 0 {
		return nil, err
	}
	return fs, 0
}

// Root returns the root directory.
func (fs *FS) Root() *Dir {
	return &Dir{fs: fs, addr: fs.rootAddr}
}

// OpenDir walks path component by component from the root, descending
// through OpenDir at each name (spec.md §4.8's multi-component open).
// "" and "/" both resolve to the root directory itself.
func (fs *FS) OpenDir(path string) (*Dir, kerrno.Err_t) {
	dir := fs.Root()
	for _, name := range splitPath(path) {
		next, err := dir.OpenDir(name)
		if err != 0 {
			return nil, err
		}
		dir = next
	}
	return dir, 0
}

// allocBlock grabs the next free data block and zeroes it on disk.
func (fs *FS) allocBlock() (uint32, kerrno.Err_t) {
	addr, err := fs.bitmap.NextFreeAddr()
	if err != 0 {
		return 0, err
	}
	if err := fs.bitmap.Alloc(addr); err != 0 {
		return 0, err
	}
	var b Block
	if err := writeBlock(fs.dev, addr, &b); err != 0 {
		return 0, err
	}
	return addr, 0
}

// entryLoc pinpoints one parsed directory entry: which block holds it
// and its byte offset within that block's payload.
type entryLoc struct {
	blockAddr uint32
	offset    int
	consumed  int // encoded byte length of this entry's record
	entry     DirEntry
}

// forEachEntry walks dirAddr's chain, calling visit for every entry that
// parses successfully (live or tombstoned — visit filters as needed).
// Stops early if visit returns true.
func (fs *FS) forEachEntry(dirAddr uint32, visit func(entryLoc) bool) kerrno.Err_t {
	addr := dirAddr
	for addr != 0 {
		b, err := readBlock(fs.dev, addr)
		if err != 0 {
			return err
		}
		payload := b.Payload()
		offset := 0
		for {
			e, n, ok := parseEntry(payload[offset:])
			if !ok {
				break
			}
			if visit(entryLoc{blockAddr: addr, offset: offset, consumed: n, entry: e}) {
				return 0
			}
			offset += n
		}
		addr = b.Next()
	}
	return 0
}

// findTombstoneSlot looks for a deleted entry's record whose encoded
// length exactly matches need, so a new entry can overwrite it in place
// without shifting every record that follows it in the block (spec.md
// §4.8 "optional reuse of tombstoned directory slots").
func (fs *FS) findTombstoneSlot(dirAddr uint32, need int) (entryLoc, bool, kerrno.Err_t) {
	var slot entryLoc
	found := false
	err := fs.forEachEntry(dirAddr, func(loc entryLoc) bool {
		if loc.entry.Addr == 0 && loc.consumed == need {
			slot = loc
			found = true
			return true
		}
		return false
	})
	return slot, found, err
}

// findInsertionPoint locates the last block of dirAddr's chain and the
// offset just past its last parsed entry, where a new entry can start.
func (fs *FS) findInsertionPoint(dirAddr uint32) (blockAddr uint32, offset int, err kerrno.Err_t) {
	addr := dirAddr
	for {
		b, rerr := readBlock(fs.dev, addr)
		if rerr != 0 {
			return 0, 0, rerr
		}
		payload := b.Payload()
		off := 0
		for {
			_, n, ok := parseEntry(payload[off:])
			if !ok {
				break
			}
			off += n
		}
		next := b.Next()
		if next == 0 {
			return addr, off, 0
		}
		addr = next
	}
}

func (fs *FS) lookupInDir(dirAddr uint32, name string) (DirEntry, bool, kerrno.Err_t) {
	var found DirEntry
	ok := false
	err := fs.forEachEntry(dirAddr, func(loc entryLoc) bool {
		if loc.entry.Addr != 0 && loc.entry.Name == name {
			found = loc.entry
			ok = true
			return true
		}
		return false
	})
	return found, ok, err
}

func (fs *FS) listDir(dirAddr uint32) ([]DirEntry, kerrno.Err_t) {
	var out []DirEntry
	err := fs.forEachEntry(dirAddr, func(loc entryLoc) bool {
		if loc.entry.Addr != 0 {
			out = append(out, loc.entry)
		}
		return false
	})
	return out, err
}

func (fs *FS) createEntry(dirAddr uint32, name string, kind Kind) (DirEntry, kerrno.Err_t) {
	if name == "" || containsSlash(name) {
		return DirEntry{}, kerrno.BadName
	}
	_, found, err := fs.lookupInDir(dirAddr, name)
	if err != 0 {
		return DirEntry{}, err
	}
	if found {
		return DirEntry{}, kerrno.AlreadyExists
	}

	payloadAddr, err := fs.allocBlock()
	if err != 0 {
		return DirEntry{}, err
	}
	entry := DirEntry{Kind: kind, Addr: payloadAddr, Size: 0, Name: name}

	if slot, ok, serr := fs.findTombstoneSlot(dirAddr, entry.len()); serr != 0 {
		return DirEntry{}, serr
	} else if ok {
		b, rerr := readBlock(fs.dev, slot.blockAddr)
		if rerr != 0 {
			return DirEntry{}, rerr
		}
		entry.put(b.Payload()[slot.offset:])
		if werr := writeBlock(fs.dev, slot.blockAddr, b); werr != 0 {
			return DirEntry{}, werr
		}
		return entry, 0
	}

	blockAddr, offset, err := fs.findInsertionPoint(dirAddr)
	if err != 0 {
		return DirEntry{}, err
	}
	if offset+entry.len() > kconfig.ChainedPayloadSize {
		newAddr, err := fs.allocBlock()
		if err != 0 {
			return DirEntry{}, err
		}
		tail, err := readBlock(fs.dev, blockAddr)
		if err != 0 {
			return DirEntry{}, err
		}
		tail.SetNext(newAddr)
		if err := writeBlock(fs.dev, blockAddr, tail); err != 0 {
			return DirEntry{}, err
		}
		blockAddr, offset = newAddr, 0
	}

	b, err := readBlock(fs.dev, blockAddr)
	if err != 0 {
		return DirEntry{}, err
	}
	entry.put(b.Payload()[offset:])
	if err := writeBlock(fs.dev, blockAddr, b); err != 0 {
		return DirEntry{}, err
	}
	return entry, 0
}

// deleteEntry tombstones name's entry (zeroing only its addr field, per
// spec.md §4.8) and frees every block in its payload chain.
func (fs *FS) deleteEntry(dirAddr uint32, name string) kerrno.Err_t {
	var target entryLoc
	found := false
	err := fs.forEachEntry(dirAddr, func(loc entryLoc) bool {
		if loc.entry.Addr != 0 && loc.entry.Name == name {
			target = loc
			found = true
			return true
		}
		return false
	})
	if err != 0 {
		return err
	}
	if !found {
		return kerrno.NotFound
	}

	chain := target.entry.Addr
	for chain != 0 {
		b, err := readBlock(fs.dev, chain)
		if err != 0 {
			return err
		}
		next := b.Next()
		if err := fs.bitmap.Free(chain); err != 0 {
			return err
		}
		chain = next
	}

	b, err := readBlock(fs.dev, target.blockAddr)
	if err != 0 {
		return err
	}
	payload := b.Payload()
	binary.BigEndian.PutUint32(payload[target.offset+1:target.offset+5], 0)
	return writeBlock(fs.dev, target.blockAddr, b)
}

func (fs *FS) updateEntrySize(dirAddr uint32, name string, size uint32) kerrno.Err_t {
	var target entryLoc
	found := false
	err := fs.forEachEntry(dirAddr, func(loc entryLoc) bool {
		if loc.entry.Addr != 0 && loc.entry.Name == name {
			target = loc
			found = true
			return true
		}
		return false
	})
	if err != 0 {
		return err
	}
	if !found {
		return kerrno.NotFound
	}
	b, err := readBlock(fs.dev, target.blockAddr)
	if err != 0 {
		return err
	}
	binary.BigEndian.PutUint32(b.Payload()[target.offset+5:target.offset+9], size)
	return writeBlock(fs.dev, target.blockAddr, b)
}

func containsSlash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return true
		}
	}
	return false
}

// Dir is a reference to one directory's chain of blocks.
type Dir struct {
	fs   *FS
	addr uint32
}

// Addr is the directory's starting block address.
func (d *Dir) Addr() uint32 { return d.addr }

// List returns every live entry in the directory, in on-disk order.
func (d *Dir) List() ([]DirEntry, kerrno.Err_t) {
	return d.fs.listDir(d.addr)
}

// CreateFile creates an empty file named name in d.
func (d *Dir) CreateFile(name string) (*File, kerrno.Err_t) {
	e, err := d.fs.createEntry(d.addr, name, KindFile)
	if err != 0 {
		return nil, err
	}
	return &File{fs: d.fs, parentAddr: d.addr, name: name, addr: e.Addr, size: 0}, 0
}

// CreateDir creates an empty subdirectory named name in d.
func (d *Dir) CreateDir(name string) (*Dir, kerrno.Err_t) {
	e, err := d.fs.createEntry(d.addr, name, KindDir)
	if err != 0 {
		return nil, err
	}
	return &Dir{fs: d.fs, addr: e.Addr}, 0
}

// OpenFile looks up name in d and returns it as a File; fails with
// NotFound if absent or not a file.
func (d *Dir) OpenFile(name string) (*File, kerrno.Err_t) {
	e, ok, err := d.fs.lookupInDir(d.addr, name)
	if err != 0 {
		return nil, err
	}
	if !ok || e.Kind != KindFile {
		return nil, kerrno.NotFound
	}
	return &File{fs: d.fs, parentAddr: d.addr, name: name, addr: e.Addr, size: e.Size}, 0
}

// OpenDir looks up name in d and returns it as a Dir; fails with
// NotFound if absent or not a directory.
func (d *Dir) OpenDir(name string) (*Dir, kerrno.Err_t) {
	e, ok, err := d.fs.lookupInDir(d.addr, name)
	if err != 0 {
		return nil, err
	}
	if !ok || e.Kind != KindDir {
		return nil, kerrno.NotFound
	}
	return &Dir{fs: d.fs, addr: e.Addr}, 0
}

// DeleteEntry removes name from d.
func (d *Dir) DeleteEntry(name string) kerrno.Err_t {
	return d.fs.deleteEntry(d.addr, name)
}

// File is a reference to one file's starting block, size, and parent
// directory's block address (spec.md §9: "avoid back-pointers").
type File struct {
	fs         *FS
	parentAddr uint32
	name       string
	addr       uint32
	size       uint32
}

// Size is the file's current byte length.
func (f *File) Size() uint32 { return f.size }

// Read copies up to len(buf) bytes starting at the file's first block,
// stopping at len(buf), the file's size, or the end of the chain.
func (f *File) Read(buf []byte) (int, kerrno.Err_t) {
	n := 0
	addr := f.addr
	for addr != 0 && n < len(buf) && uint32(n) < f.size {
		b, err := readBlock(f.fs.dev, addr)
		if err != 0 {
			return n, err
		}
		payload := b.Payload()
		want := len(buf) - n
		if remaining := int(f.size) - n; want > remaining {
			want = remaining
		}
		if want > len(payload) {
			want = len(payload)
		}
		copy(buf[n:n+want], payload[:want])
		n += want
		addr = b.Next()
	}
	return n, 0
}

// Write overwrites the file's entire contents with buf (truncate-and-
// overwrite semantics). Unlike the source this spec corrects (§9 Open
// Question): when buf is shorter than the file's existing chain, the
// surplus tail blocks are freed and the last retained block's next
// pointer is zeroed, rather than leaking them.
func (f *File) Write(buf []byte) kerrno.Err_t {
	addr := f.addr
	remaining := buf
	for {
		b, err := readBlock(f.fs.dev, addr)
		if err != 0 {
			return err
		}
		payload := b.Payload()
		n := len(remaining)
		if n > len(payload) {
			n = len(payload)
		}
		copy(payload[:n], remaining[:n])
		remaining = remaining[n:]
		next := b.Next()

		if len(remaining) == 0 {
			tail := next
			b.SetNext(0)
			if err := writeBlock(f.fs.dev, addr, b); err != 0 {
				return err
			}
			for tail != 0 {
				tb, err := readBlock(f.fs.dev, tail)
				if err != 0 {
					return err
				}
				nextTail := tb.Next()
				if err := f.fs.bitmap.Free(tail); err != 0 {
					return err
				}
				tail = nextTail
			}
			break
		}

		if next == 0 {
			newAddr, err := f.fs.allocBlock()
			if err != 0 {
				return err
			}
			b.SetNext(newAddr)
			next = newAddr
		}
		if err := writeBlock(f.fs.dev, addr, b); err != 0 {
			return err
		}
		addr = next
	}

	f.size = uint32(len(buf))
	return f.fs.updateEntrySize(f.parentAddr, f.name, f.size)
}
