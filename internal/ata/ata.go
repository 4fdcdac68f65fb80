// Package ata implements the polled-PIO ATA driver of spec.md §2.8/§4.7:
// bus probing, LBA28 addressing, and synchronous 512-byte sector I/O.
// Block-request batching borrows the shape of Biscuit's BlkList_t/Disk_i
// pair (biscuit/src/fs/blk.go), generalized from an async, cached,
// log-structured disk interface down to this spec's single synchronous
// request at a time, serialized by one global lock per spec.md §4.7/§5.
package ata

import (
	"container/list"
	"fmt"

	"parvaos/internal/kconfig"
	"parvaos/internal/kerrno"
	"parvaos/internal/kio"
)

// Bus identifies the primary or secondary ATA controller.
type Bus int

const (
	Primary Bus = iota
	Secondary
)

// Drive identifies master or slave on a bus.
type Drive int

const (
	Master Drive = iota
	Slave
)

type busPorts struct {
	data, errReg, sectorCount, lbaLow, lbaMid, lbaHigh, drive, command, control uint16
}

var buses = [2]busPorts{
	Primary: {
		data: 0x1F0, errReg: 0x1F1, sectorCount: 0x1F2,
		lbaLow: 0x1F3, lbaMid: 0x1F4, lbaHigh: 0x1F5,
		drive: 0x1F6, command: 0x1F7, control: 0x3F6,
	},
	Secondary: {
		data: 0x170, errReg: 0x171, sectorCount: 0x172,
		lbaLow: 0x173, lbaMid: 0x174, lbaHigh: 0x175,
		drive: 0x176, command: 0x177, control: 0x376,
	},
}

const (
	statusERR = 1 << 0
	statusDRQ = 1 << 3
	statusSRV = 1 << 4
	statusDF  = 1 << 5
	statusBSY = 1 << 7

	cmdIdentify     = 0xEC
	cmdReadSectors  = 0x20
	cmdWriteSectors = 0x30

	driveSelectLBA = 0xE0 // bit4=drive, bits 0-3=LBA[27:24]
)

// state is the per-operation FSM named in spec.md §4.7.
type state int

const (
	stateIdle state = iota
	stateSelected
	stateCommandIssued
	stateDataTransfer
)

// Device identifies one probed (bus, drive) pair that replied to IDENTIFY.
type Device struct {
	Bus   Bus
	Drive Drive
}

// Yielder lets the busy-wait loop cooperate with other tasks instead of
// spinning the CPU pointlessly (spec.md §4.7: "concurrent callers block
// via cooperative yield in the lock's busy loop").
type Yielder interface {
	YieldNow()
}

// Request records one issued command for Controller.History, the way
// biscuit/src/fs/blk.go's BlkList_t keeps an ordered batch of in-flight
// Bdev_req_t values. This driver only ever has one request outstanding
// at a time (spec.md §4.7's single global lock), so the list here is a
// bounded trailing history for debugging rather than a real queue.
type Request struct {
	Device Device
	LBA    uint32
	Write  bool
}

const historyLimit = 64

// Controller owns the port bus and the single global lock serializing
// every ATA operation.
type Controller struct {
	ports   kio.PortIO
	yielder Yielder
	locked  bool
	state   state
	history *list.List
}

// New binds a Controller to its port bus and the scheduler used for the
// lock's busy-wait.
func New(ports kio.PortIO, y Yielder) *Controller {
	return &Controller{ports: ports, yielder: y, history: list.New()}
}

// record appends req to the trailing history, dropping the oldest entry
// once historyLimit is exceeded.
func (c *Controller) record(req Request) {
	c.history.PushBack(req)
	if c.history.Len() > historyLimit {
		c.history.Remove(c.history.Front())
	}
}

// History returns the most recent issued requests, oldest first.
func (c *Controller) History() []Request {
	out := make([]Request, 0, c.history.Len())
	for e := c.history.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(Request))
	}
	return out
}

func (c *Controller) lock() {
	for c.locked {
		c.yielder.YieldNow()
	}
	c.locked = true
	c.state = stateIdle
}

func (c *Controller) unlock() {
	c.state = stateIdle
	c.locked = false
}

// Probe walks primary/secondary x master/slave, issuing IDENTIFY and
// polling BSY/DRQ, and returns every device that replied.
func (c *Controller) Probe() []Device {
	var found []Device
	for _, bus := range []Bus{Primary, Secondary} {
		for _, drive := range []Drive{Master, Slave} {
			if c.identify(bus, drive) {
				found = append(found, Device{Bus: bus, Drive: drive})
			}
		}
	}
	return found
}

func (c *Controller) identify(bus Bus, drive Drive) bool {
	c.lock()
	defer c.unlock()

	p := buses[bus]
	c.selectDrive(p, drive, 0)
	c.state = stateSelected

	p2 := p
	c.ports.Out8(p2.sectorCount, 0)
	c.ports.Out8(p2.lbaLow, 0)
	c.ports.Out8(p2.lbaMid, 0)
	c.ports.Out8(p2.lbaHigh, 0)
	c.ports.Out8(p2.command, cmdIdentify)
	c.state = stateCommandIssued

	status := c.ports.In8(p2.command)
	if status == 0 {
		return false // no device on this bus/drive at all
	}
	for i := 0; i < 100000; i++ {
		status = c.ports.In8(p2.command)
		if status&statusBSY == 0 {
			break
		}
	}
	if c.ports.In8(p2.lbaMid) != 0 || c.ports.In8(p2.lbaHigh) != 0 {
		return false // not an ATA device (ATAPI or similar)
	}
	for {
		status = c.ports.In8(p2.command)
		if status&statusERR != 0 {
			return false
		}
		if status&statusDRQ != 0 {
			break
		}
	}
	c.state = stateDataTransfer
	// drain the 256-word identify payload; this driver has no use for
	// its contents beyond confirming the device replied.
	for i := 0; i < 256; i++ {
		c.ports.In16(p2.data)
	}
	return true
}

func (c *Controller) selectDrive(p busPorts, drive Drive, lbaHighNibble uint8) {
	sel := driveSelectLBA | (uint8(drive) << 4) | (lbaHighNibble & 0x0F)
	c.ports.Out8(p.drive, sel)
}

// Read transfers one 512-byte sector at lba into buf, which must be
// exactly kconfig.SectorSize bytes.
func (c *Controller) Read(dev Device, lba uint32, buf []byte) kerrno.Err_t {
	if len(buf) != kconfig.SectorSize {
		panic("ata: buffer must be exactly one sector")
	}
	c.lock()
	defer c.unlock()
	if err := c.issue(dev, lba, cmdReadSectors); err != 0 {
		return err
	}
	p := buses[dev.Bus]
	for i := 0; i < kconfig.SectorSize/2; i++ {
		w := c.ports.In16(p.data)
		buf[2*i] = byte(w)
		buf[2*i+1] = byte(w >> 8)
	}
	return 0
}

// Write transfers buf (exactly one sector) to lba.
func (c *Controller) Write(dev Device, lba uint32, buf []byte) kerrno.Err_t {
	if len(buf) != kconfig.SectorSize {
		panic("ata: buffer must be exactly one sector")
	}
	c.lock()
	defer c.unlock()
	if err := c.issue(dev, lba, cmdWriteSectors); err != 0 {
		return err
	}
	p := buses[dev.Bus]
	for i := 0; i < kconfig.SectorSize/2; i++ {
		w := uint16(buf[2*i]) | uint16(buf[2*i+1])<<8
		c.ports.Out16(p.data, w)
	}
	return 0
}

// issue sets up LBA28 addressing, sends the command, and polls for DRQ
// or an error, following the state machine Idle->Selected->
// CommandIssued->DataTransfer (spec.md §4.7).
func (c *Controller) issue(dev Device, lba uint32, cmd uint8) kerrno.Err_t {
	c.record(Request{Device: dev, LBA: lba, Write: cmd == cmdWriteSectors})

	p := buses[dev.Bus]
	highNibble := uint8((lba >> 24) & 0x0F)
	c.selectDrive(p, dev.Drive, highNibble)
	c.state = stateSelected

	c.ports.Out8(p.sectorCount, 1)
	c.ports.Out8(p.lbaLow, uint8(lba))
	c.ports.Out8(p.lbaMid, uint8(lba>>8))
	c.ports.Out8(p.lbaHigh, uint8(lba>>16))
	c.ports.Out8(p.command, cmd)
	c.state = stateCommandIssued

	const maxPolls = 1_000_000
	for i := 0; i < maxPolls; i++ {
		status := c.ports.In8(p.command)
		if status&statusBSY != 0 {
			continue
		}
		if status&(statusERR|statusDF) != 0 {
			return kerrno.IoError
		}
		if status&statusDRQ != 0 {
			c.state = stateDataTransfer
			return 0
		}
	}
	return kerrno.IoError
}

// String renders a Device for logging.
func (d Device) String() string {
	bus := "primary"
	if d.Bus == Secondary {
		bus = "secondary"
	}
	drive := "master"
	if d.Drive == Slave {
		drive = "slave"
	}
	return fmt.Sprintf("%s/%s", bus, drive)
}
