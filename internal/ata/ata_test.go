package ata

import "testing"

// fakeDrive simulates a single ATA device attached to one bus/drive slot:
// it tracks the registers written by issue()/identify() and answers status
// reads the way real hardware would for a device that is always ready.
type fakeDrive struct {
	present     bool
	sectorData  map[uint32][]byte
	lastCommand uint8
	lastLBA     uint32
	dataIdx     int
	failOnce    bool
}

type fakeBus struct {
	drives  [2]fakeDrive // indexed by Drive
	lbaLow  uint8
	lbaMid  uint8
	lbaHigh uint8
	sectCnt uint8
	sel     uint8
}

type fakeYielder struct{ yields int }

func (y *fakeYielder) YieldNow() { y.yields++ }

type fakePorts struct {
	buses [2]fakeBus
}

func newFakePorts() *fakePorts {
	var fp fakePorts
	for b := range fp.buses {
		for d := range fp.buses[b].drives {
			fp.buses[b].drives[d].sectorData = map[uint32][]byte{}
		}
	}
	return &fp
}

func (fp *fakePorts) busFor(port uint16) (*fakeBus, busPorts) {
	if port >= 0x1F0 && port <= 0x1F7 || port == 0x3F6 {
		return &fp.buses[Primary], buses[Primary]
	}
	return &fp.buses[Secondary], buses[Secondary]
}

func (fp *fakePorts) Out8(port uint16, val uint8) {
	b, p := fp.busFor(port)
	switch port {
	case p.sectorCount:
		b.sectCnt = val
	case p.lbaLow:
		b.lbaLow = val
	case p.lbaMid:
		b.lbaMid = val
	case p.lbaHigh:
		b.lbaHigh = val
	case p.drive:
		b.sel = val
	case p.command:
		drive := (b.sel >> 4) & 1
		b.drives[drive].lastCommand = val
		b.drives[drive].lastLBA = uint32(b.lbaLow) | uint32(b.lbaMid)<<8 | uint32(b.lbaHigh)<<16 | uint32(b.sel&0x0F)<<24
		b.drives[drive].dataIdx = 0
	}
}

func (fp *fakePorts) In8(port uint16) uint8 {
	b, p := fp.busFor(port)
	drive := (b.sel >> 4) & 1
	switch port {
	case p.command:
		d := &b.drives[drive]
		if !d.present {
			return 0
		}
		if d.failOnce {
			d.failOnce = false
			return statusERR
		}
		return statusDRQ
	case p.lbaMid:
		return b.lbaMid
	case p.lbaHigh:
		return b.lbaHigh
	}
	return 0
}

func (fp *fakePorts) Out16(port uint16, val uint16) {
	b, p := fp.busFor(port)
	if port != p.data {
		return
	}
	drive := (b.sel >> 4) & 1
	d := &b.drives[drive]
	buf := d.sectorData[d.lastLBA]
	if buf == nil {
		buf = make([]byte, 512)
		d.sectorData[d.lastLBA] = buf
	}
	buf[2*d.dataIdx] = byte(val)
	buf[2*d.dataIdx+1] = byte(val >> 8)
	d.dataIdx++
}

func (fp *fakePorts) In16(port uint16) uint16 {
	b, p := fp.busFor(port)
	if port != p.data {
		return 0
	}
	drive := (b.sel >> 4) & 1
	d := &b.drives[drive]
	if d.lastCommand == cmdIdentify {
		d.dataIdx++
		return 0
	}
	buf := d.sectorData[d.lastLBA]
	var w uint16
	if buf != nil {
		w = uint16(buf[2*d.dataIdx]) | uint16(buf[2*d.dataIdx+1])<<8
	}
	d.dataIdx++
	return w
}

func (fp *fakePorts) Out32(uint16, uint32) {}
func (fp *fakePorts) In32(uint16) uint32   { return 0 }

func TestProbeFindsOnlyPresentDrives(t *testing.T) {
	fp := newFakePorts()
	fp.buses[Primary].drives[Master].present = true

	c := New(fp, &fakeYielder{})
	found := c.Probe()
	if len(found) != 1 {
		t.Fatalf("expected exactly 1 device, got %d: %v", len(found), found)
	}
	if found[0].Bus != Primary || found[0].Drive != Master {
		t.Fatalf("expected primary/master, got %v", found[0])
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	fp := newFakePorts()
	fp.buses[Primary].drives[Master].present = true
	c := New(fp, &fakeYielder{})
	dev := Device{Bus: Primary, Drive: Master}

	want := make([]byte, 512)
	for i := range want {
		want[i] = byte(i * 3)
	}
	if err := c.Write(dev, 42, want); err != 0 {
		t.Fatalf("write failed: %v", err)
	}

	got := make([]byte, 512)
	if err := c.Read(dev, 42, got); err != 0 {
		t.Fatalf("read failed: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: want %d got %d", i, want[i], got[i])
		}
	}
}

func TestReadWrongLBAReturnsZeroed(t *testing.T) {
	fp := newFakePorts()
	fp.buses[Primary].drives[Master].present = true
	c := New(fp, &fakeYielder{})
	dev := Device{Bus: Primary, Drive: Master}

	buf := make([]byte, 512)
	if err := c.Read(dev, 7, buf); err != 0 {
		t.Fatalf("read of never-written sector should still succeed, got %v", err)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected zeroed sector, found non-zero byte")
		}
	}
}

func TestIssueReportsDeviceError(t *testing.T) {
	fp := newFakePorts()
	fp.buses[Primary].drives[Master].present = true
	fp.buses[Primary].drives[Master].failOnce = true
	c := New(fp, &fakeYielder{})
	dev := Device{Bus: Primary, Drive: Master}

	buf := make([]byte, 512)
	if err := c.Read(dev, 0, buf); err == 0 {
		t.Fatalf("expected IoError when device reports ERR status")
	}
}

// releaseAfterYields unlocks c once YieldNow has been called enough times,
// simulating the holder of the lock finishing its operation.
type releaseAfterYields struct {
	c     *Controller
	after int
	count int
}

func (r *releaseAfterYields) YieldNow() {
	r.count++
	if r.count >= r.after {
		r.c.locked = false
	}
}

func TestLockBusyWaitsViaYieldNow(t *testing.T) {
	fp := newFakePorts()
	fp.buses[Primary].drives[Master].present = true
	c := New(fp, nil)
	y := &releaseAfterYields{c: c, after: 3}
	c.yielder = y

	c.locked = true
	c.lock()

	if y.count != 3 {
		t.Fatalf("expected lock() to call YieldNow exactly until release, got %d calls", y.count)
	}
	if !c.locked {
		t.Fatalf("expected lock() to leave the lock held")
	}
}

func TestHistoryRecordsIssuedRequestsInOrder(t *testing.T) {
	fp := newFakePorts()
	fp.buses[Primary].drives[Master].present = true
	c := New(fp, &fakeYielder{})
	dev := Device{Bus: Primary, Drive: Master}

	buf := make([]byte, 512)
	if err := c.Write(dev, 1, buf); err != 0 {
		t.Fatalf("write: %v", err)
	}
	if err := c.Read(dev, 2, buf); err != 0 {
		t.Fatalf("read: %v", err)
	}

	hist := c.History()
	if len(hist) != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", len(hist))
	}
	if hist[0].LBA != 1 || !hist[0].Write {
		t.Fatalf("expected first entry to be the write at LBA 1, got %+v", hist[0])
	}
	if hist[1].LBA != 2 || hist[1].Write {
		t.Fatalf("expected second entry to be the read at LBA 2, got %+v", hist[1])
	}
}

func TestHistoryTrimsToLimit(t *testing.T) {
	fp := newFakePorts()
	fp.buses[Primary].drives[Master].present = true
	c := New(fp, &fakeYielder{})
	dev := Device{Bus: Primary, Drive: Master}
	buf := make([]byte, 512)

	for i := 0; i < historyLimit+10; i++ {
		if err := c.Read(dev, uint32(i), buf); err != 0 {
			t.Fatalf("read %d: %v", i, err)
		}
	}

	hist := c.History()
	if len(hist) != historyLimit {
		t.Fatalf("expected history capped at %d, got %d", historyLimit, len(hist))
	}
	if hist[0].LBA != 10 {
		t.Fatalf("expected oldest surviving entry to be LBA 10, got %d", hist[0].LBA)
	}
	if hist[len(hist)-1].LBA != uint32(historyLimit+9) {
		t.Fatalf("expected newest entry to be LBA %d, got %d", historyLimit+9, hist[len(hist)-1].LBA)
	}
}

func TestDeviceString(t *testing.T) {
	d := Device{Bus: Secondary, Drive: Slave}
	if d.String() != "secondary/slave" {
		t.Fatalf("unexpected String(): %s", d.String())
	}
}
