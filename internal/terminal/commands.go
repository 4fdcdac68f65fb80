package terminal

import (
	"strconv"
	"strings"

	"parvaos/internal/kerrno"
	"parvaos/internal/parvafs"
)

const osName = "ParvaOS"
const osVersion = "0.1"

var helpLines = []string{
	"help      - print this command list",
	"info      - print OS name and version",
	"clear     - clear terminal interior",
	"reboot    - reset the CPU",
	"shutdown  - exit the emulator",
	"neofetch  - print a banner",
	"install   - format the probed disk as ParvaFS",
	"list      - list a directory (root if no path given)",
	"mkdir     - create a directory",
	"crfile    - create an empty file",
	"read      - print a file's contents",
	"edit      - overwrite a file with literal text",
}

// Execute parses line as "cmd arg1 arg2 ..." (whitespace-split) and runs
// it against the dispatch table (spec.md §4.10). Each command runs to
// completion before returning; there is no background execution.
func (t *Terminal) Execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		for _, l := range helpLines {
			t.PrintLine(l)
		}
	case "info":
		t.PrintLine(osName + " " + osVersion)
	case "clear":
		t.clear()
	case "reboot":
		t.reboot.Reboot()
	case "shutdown":
		t.shutdown.Shutdown()
	case "neofetch":
		t.neofetch()
	case "install":
		t.install()
	case "list":
		t.list(args)
	case "mkdir":
		t.mkdir(args)
	case "crfile":
		t.crfile(args)
	case "read":
		t.readFile(args)
	case "edit":
		t.edit(args)
	default:
		t.PrintLine("command not found")
	}
}

func (t *Terminal) neofetch() {
	t.PrintLine(osName)
	t.PrintLine("------------")
	t.PrintLine("OS: " + osName + " " + osVersion)
	t.PrintLine("Kernel: cooperative, single-core")
	t.PrintLine("Shell: built-in dispatch table")
}

func (t *Terminal) install() {
	if len(t.devices) == 0 {
		t.PrintLine("no disk device found")
		return
	}
	dev := parvafs.AtaDevice{Controller: t.ataCtl, Device: t.devices[0]}
	fs, err := parvafs.Format(dev)
	if err != 0 {
		t.PrintLine(err.String())
		return
	}
	t.fs = fs
	t.PrintLine("formatted " + t.devices[0].String())
}

func (t *Terminal) requireFS() bool {
	if t.fs == nil {
		t.PrintLine(kerrno.NotMounted.String())
		return false
	}
	return true
}

// resolveParent walks path's directory portion from the root (spec.md
// §4.8's multi-component open) and returns the containing Dir plus the
// final path component's bare name.
func (t *Terminal) resolveParent(path string) (*parvafs.Dir, string, kerrno.Err_t) {
	dir, err := t.fs.OpenDir(parvafs.Dirname(path))
	if err != 0 {
		return nil, "", err
	}
	return dir, parvafs.Filename(path), 0
}

func (t *Terminal) list(args []string) {
	if !t.requireFS() {
		return
	}
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	dir, err := t.fs.OpenDir(path)
	if err != 0 {
		t.PrintLine(err.String())
		return
	}
	entries, err := dir.List()
	if err != 0 {
		t.PrintLine(err.String())
		return
	}
	for _, e := range entries {
		kind := "file"
		if e.Kind == parvafs.KindDir {
			kind = "dir"
		}
		t.PrintLine(e.Name + "\t" + kind + "\t" + strconv.Itoa(int(e.Size)))
	}
}

func (t *Terminal) mkdir(args []string) {
	if !t.requireFS() {
		return
	}
	if len(args) != 1 {
		t.PrintLine("usage: mkdir <path>")
		return
	}
	dir, name, err := t.resolveParent(args[0])
	if err != 0 {
		t.PrintLine(err.String())
		return
	}
	if _, err := dir.CreateDir(name); err != 0 {
		t.PrintLine(err.String())
	}
}

func (t *Terminal) crfile(args []string) {
	if !t.requireFS() {
		return
	}
	if len(args) != 1 {
		t.PrintLine("usage: crfile <path>")
		return
	}
	dir, name, err := t.resolveParent(args[0])
	if err != 0 {
		t.PrintLine(err.String())
		return
	}
	if _, err := dir.CreateFile(name); err != 0 {
		t.PrintLine(err.String())
	}
}

func (t *Terminal) readFile(args []string) {
	if !t.requireFS() {
		return
	}
	if len(args) != 1 {
		t.PrintLine("usage: read <path>")
		return
	}
	dir, name, err := t.resolveParent(args[0])
	if err != 0 {
		t.PrintLine(err.String())
		return
	}
	f, err := dir.OpenFile(name)
	if err != 0 {
		t.PrintLine(err.String())
		return
	}
	buf := make([]byte, f.Size())
	n, err := f.Read(buf)
	if err != 0 {
		t.PrintLine(err.String())
		return
	}
	t.PrintLine(string(buf[:n]))
}

func (t *Terminal) edit(args []string) {
	if !t.requireFS() {
		return
	}
	if len(args) < 1 {
		t.PrintLine("usage: edit <path> <content...>")
		return
	}
	dir, name, err := t.resolveParent(args[0])
	if err != 0 {
		t.PrintLine(err.String())
		return
	}
	f, err := dir.OpenFile(name)
	if err != 0 {
		t.PrintLine(err.String())
		return
	}
	content := strings.Join(args[1:], " ")
	if err := f.Write([]byte(content)); err != 0 {
		t.PrintLine(err.String())
	}
}
