package parvafs

import "encoding/binary"

// Kind distinguishes a directory entry's target.
type Kind uint8

const (
	KindDir Kind = iota
	KindFile
)

// entryHeaderLen is the fixed portion of a serialized DirEntry: kind(1)
// + addr(4) + size(4) + name_len(1), per spec.md §3.
const entryHeaderLen = 1 + 4 + 4 + 1

// DirEntry is the decoded form of one spec.md §3 DirEntry record.
type DirEntry struct {
	Kind Kind
	Addr uint32
	Size uint32
	Name string
}

// len is the serialized byte length of the entry.
func (e DirEntry) len() int { return entryHeaderLen + len(e.Name) }

// put serializes e into dst, which must be at least e.len() bytes.
func (e DirEntry) put(dst []byte) {
	dst[0] = byte(e.Kind)
	binary.BigEndian.PutUint32(dst[1:5], e.Addr)
	binary.BigEndian.PutUint32(dst[5:9], e.Size)
	dst[9] = byte(len(e.Name))
	copy(dst[10:], e.Name)
}

// parseEntry decodes one entry starting at src[0], returning it and the
// number of bytes consumed. ok is false if src is too short to hold even
// the fixed header or the entry's name, or the entry is an end-of-block
// marker (name_len == 0 — spec.md forbids empty names, so this can only
// be unused trailing space left zeroed since format/allocation).
func parseEntry(src []byte) (e DirEntry, consumed int, ok bool) {
	if len(src) < entryHeaderLen {
		return DirEntry{}, 0, false
	}
	nameLen := int(src[9])
	if nameLen == 0 {
		return DirEntry{}, 0, false
	}
	total := entryHeaderLen + nameLen
	if len(src) < total {
		return DirEntry{}, 0, false
	}
	e = DirEntry{
		Kind: Kind(src[0]),
		Addr: binary.BigEndian.Uint32(src[1:5]),
		Size: binary.BigEndian.Uint32(src[5:9]),
		Name: string(src[10:total]),
	}
	return e, total, true
}
