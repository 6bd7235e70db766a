//go:build windows

package probe

import (
	"context"

	"github.com/yusufpapurcu/wmi"
)

// win32VideoController is the subset of Win32_VideoController we read.
type win32VideoController struct {
	Name          string
	DriverVersion string
}

type platformLister struct{}

func (platformLister) ListDevices(ctx context.Context) ([]Device, error) {
	type result struct {
		rows []win32VideoController
		err  error
	}

	// wmi.Query has no context support; run it aside so cancellation
	// still returns promptly.
	done := make(chan result, 1)
	go func() {
		var rows []win32VideoController
		err := wmi.Query("SELECT Name, DriverVersion FROM Win32_VideoController", &rows)
		done <- result{rows: rows, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		devices := make([]Device, 0, len(r.rows))
		for _, row := range r.rows {
			devices = append(devices, Device{Name: row.Name, DriverVersion: row.DriverVersion})
		}
		return devices, nil
	}
}
