//go:build windows

package privilege

import "golang.org/x/sys/windows"

// IsElevated returns true if the process token is elevated (UAC already
// granted or running as SYSTEM).
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
