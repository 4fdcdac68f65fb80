package kernel

import (
	"testing"

	"parvaos/internal/ata"
)

func TestChooseDeviceNoneProbed(t *testing.T) {
	if _, ok := chooseDevice(nil); ok {
		t.Fatalf("expected no device to be chosen from an empty probe")
	}
}

func TestChooseDeviceFirstOfSeveral(t *testing.T) {
	devices := []ata.Device{
		{Bus: ata.Primary, Drive: ata.Master},
		{Bus: ata.Secondary, Drive: ata.Slave},
	}
	dev, ok := chooseDevice(devices)
	if !ok || dev != devices[0] {
		t.Fatalf("expected the first probed device to be chosen, got %+v", dev)
	}
}

func TestTryMountReturnsNilWithoutDevices(t *testing.T) {
	if fs := tryMount(nil, nil); fs != nil {
		t.Fatalf("expected nil FS when no device was probed")
	}
}
