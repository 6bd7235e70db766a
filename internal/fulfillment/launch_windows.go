//go:build windows

package fulfillment

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"syscall"
	"unsafe"

	"github.com/breeze-rmm/driverwatch/internal/logging"
	"github.com/breeze-rmm/driverwatch/internal/privilege"
	"golang.org/x/sys/windows"
)

const (
	seeMaskNoCloseProcess = 0x00000040
	seeMaskNoAsync        = 0x00000100
	swShowNormal          = 1
)

// shellExecuteInfo is the SHELLEXECUTEINFOW struct from the Windows API.
type shellExecuteInfo struct {
	cbSize       uint32
	fMask        uint32
	hwnd         uintptr
	lpVerb       *uint16
	lpFile       *uint16
	lpParameters *uint16
	lpDirectory  *uint16
	nShow        int32
	hInstApp     uintptr
	lpIDList     uintptr
	lpClass      *uint16
	hkeyClass    uintptr
	dwHotKey     uint32
	hIcon        uintptr
	hProcess     windows.Handle
}

var (
	shell32             = windows.NewLazySystemDLL("shell32.dll")
	procShellExecuteExW = shell32.NewProc("ShellExecuteExW")
)

// ElevatedLauncher starts the installer through the UAC "runas" verb and
// waits for it to exit. ctx is only consulted before the prompt; a running
// installer is never interrupted.
type ElevatedLauncher struct{}

func (ElevatedLauncher) Launch(ctx context.Context, path string, started func()) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, &LaunchError{Path: path, Err: err}
	}

	verb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return -1, &LaunchError{Path: path, Err: err}
	}
	file, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return -1, &LaunchError{Path: path, Err: err}
	}
	dir, err := windows.UTF16PtrFromString(filepath.Dir(path))
	if err != nil {
		return -1, &LaunchError{Path: path, Err: err}
	}

	info := shellExecuteInfo{
		fMask:       seeMaskNoCloseProcess | seeMaskNoAsync,
		lpVerb:      verb,
		lpFile:      file,
		lpDirectory: dir,
		nShow:       swShowNormal,
	}
	info.cbSize = uint32(unsafe.Sizeof(info))

	logger := logging.FromContext(ctx)
	if privilege.IsElevated() {
		logger.Debug("already elevated, runas will not prompt")
	}

	// 1. Show the consent prompt and start the process.
	r, _, callErr := procShellExecuteExW.Call(uintptr(unsafe.Pointer(&info)))
	if r == 0 {
		if errno, ok := callErr.(syscall.Errno); ok && errno == windows.ERROR_CANCELLED {
			return -1, ErrUserCancelled
		}
		return -1, &LaunchError{Path: path, Err: fmt.Errorf("ShellExecuteEx: %w", callErr)}
	}
	if started != nil {
		started()
	}

	// The shell may hand the request to an existing process and return no
	// handle; there is nothing to wait on then.
	if info.hProcess == 0 {
		logger.Warn("installer started without a process handle", "path", path)
		return 0, nil
	}
	defer windows.CloseHandle(info.hProcess)

	// 2. Block until the installer exits.
	if _, err := windows.WaitForSingleObject(info.hProcess, windows.INFINITE); err != nil {
		return -1, &LaunchError{Path: path, Err: fmt.Errorf("WaitForSingleObject: %w", err)}
	}

	// 3. Collect the exit code.
	var code uint32
	if err := windows.GetExitCodeProcess(info.hProcess, &code); err != nil {
		return -1, &LaunchError{Path: path, Err: fmt.Errorf("GetExitCodeProcess: %w", err)}
	}
	return int(code), nil
}

func defaultLauncher() Launcher { return ElevatedLauncher{} }

func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
