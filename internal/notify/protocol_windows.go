//go:build windows

package notify

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const protocolKey = `Software\Classes\` + Scheme

// RegisterProtocol registers the driverwatch: URI scheme for the current user
// so toast activations launch "<exe> activate <uri>".
func RegisterProtocol(exe string) error {
	root, _, err := registry.CreateKey(registry.CURRENT_USER, protocolKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create %s: %w", protocolKey, err)
	}
	defer root.Close()

	if err := root.SetStringValue("", "URL:"+Scheme+" Protocol"); err != nil {
		return fmt.Errorf("set protocol description: %w", err)
	}
	if err := root.SetStringValue("URL Protocol", ""); err != nil {
		return fmt.Errorf("set URL Protocol marker: %w", err)
	}

	cmdKey, _, err := registry.CreateKey(registry.CURRENT_USER, protocolKey+`\shell\open\command`, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create command key: %w", err)
	}
	defer cmdKey.Close()

	command := fmt.Sprintf(`"%s" activate "%%1"`, exe)
	if err := cmdKey.SetStringValue("", command); err != nil {
		return fmt.Errorf("set open command: %w", err)
	}

	log.Info("registered protocol handler", "scheme", Scheme, "command", command)
	return nil
}
