//go:build !windows

package notify

import "errors"

// RegisterProtocol is only meaningful where toasts launch URIs.
func RegisterProtocol(string) error {
	return errors.New("protocol registration is only supported on windows")
}
