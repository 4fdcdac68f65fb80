package main

import (
	"path/filepath"
	"testing"

	"parvaos/internal/kconfig"
	"parvaos/internal/parvafs"
)

func TestFileDeviceRoundTripsThroughParvaFS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	sectors := int64(kconfig.DataAddrOffset + 64)

	dev, err := CreateFileDevice(path, sectors)
	if err != nil {
		t.Fatalf("CreateFileDevice: %v", err)
	}

	fs, ferr := parvafs.Format(dev)
	if ferr != 0 {
		t.Fatalf("format: %v", ferr)
	}
	f, ferr := fs.Root().CreateFile("greet")
	if ferr != 0 {
		t.Fatalf("create: %v", ferr)
	}
	if werr := f.Write([]byte("hello disk image")); werr != 0 {
		t.Fatalf("write: %v", werr)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenFileDevice(path)
	if err != nil {
		t.Fatalf("OpenFileDevice: %v", err)
	}
	defer reopened.Close()

	mounted, merr := parvafs.Mount(reopened)
	if merr != 0 {
		t.Fatalf("mount: %v", merr)
	}
	rf, merr := mounted.Root().OpenFile("greet")
	if merr != 0 {
		t.Fatalf("open: %v", merr)
	}
	buf := make([]byte, rf.Size())
	n, rerr := rf.Read(buf)
	if rerr != 0 {
		t.Fatalf("read: %v", rerr)
	}
	if string(buf[:n]) != "hello disk image" {
		t.Fatalf("expected round-tripped content, got %q", buf[:n])
	}
}

func TestSplitNameValue(t *testing.T) {
	name, content, ok := splitNameValue("greet=hello world")
	if !ok || name != "greet" || content != "hello world" {
		t.Fatalf("unexpected parse: name=%q content=%q ok=%v", name, content, ok)
	}
	if _, _, ok := splitNameValue("noequals"); ok {
		t.Fatalf("expected a spec without '=' to fail")
	}
}
