package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/breeze-rmm/driverwatch/internal/driver"
)

type fakeLister struct {
	devices []Device
	err     error
}

func (f fakeLister) ListDevices(context.Context) ([]Device, error) {
	return f.devices, f.err
}

func TestCurrentReturnsFirstVendorDevice(t *testing.T) {
	p := New(fakeLister{devices: []Device{
		{Name: "Intel(R) UHD Graphics 630", DriverVersion: "31.0.101.2111"},
		{Name: "NVIDIA GeForce RTX 2080 SUPER", DriverVersion: "31.0.15.5222"},
		{Name: "NVIDIA GeForce GTX 1050", DriverVersion: "31.0.15.4601"},
	}})

	v, err := p.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if v == nil {
		t.Fatal("expected a version")
	}
	if !v.Equal(driver.MustParseCatalog("552.22")) {
		t.Fatalf("version = %s, want 552.22", v)
	}
}

func TestCurrentNoVendorDevice(t *testing.T) {
	tests := []struct {
		name    string
		devices []Device
	}{
		{"empty table", nil},
		{"other vendors", []Device{{Name: "AMD Radeon RX 6800", DriverVersion: "31.0.21001.45002"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(fakeLister{devices: tt.devices}).Current(context.Background())
			if err != nil {
				t.Fatalf("no device is not an error, got %v", err)
			}
			if v != nil {
				t.Fatalf("expected nil version, got %s", v)
			}
		})
	}
}

func TestCurrentListerFailure(t *testing.T) {
	boom := errors.New("wmi: access denied")
	_, err := New(fakeLister{err: boom}).Current(context.Background())

	var pe *ProbeError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProbeError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatal("ProbeError should wrap the lister error")
	}
}

func TestCurrentUnparseableVendorVersion(t *testing.T) {
	_, err := New(fakeLister{devices: []Device{{Name: "NVIDIA Quadro", DriverVersion: "unknown"}}}).Current(context.Background())

	var pe *ProbeError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProbeError, got %v", err)
	}
	if !errors.Is(err, driver.ErrMalformedVersion) {
		t.Fatalf("expected ErrMalformedVersion in chain, got %v", err)
	}
}
