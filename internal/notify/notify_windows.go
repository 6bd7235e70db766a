//go:build windows

package notify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// powershellAppID is the AppUserModelID of Windows PowerShell, which is
// always registered and therefore always allowed to raise toasts.
const powershellAppID = `{1AC14E77-02E7-4E5D-B744-2EB1AE5198B7}\WindowsPowerShell\v1.0\powershell.exe`

// The XML is bound to a script parameter so nothing in it is interpolated.
const toastScript = `param([string]$xml, [string]$appId)
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
$doc.LoadXml($xml)
$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier($appId).Show($toast)`

type toastNotifier struct {
	appID string
}

func newPlatformNotifier(opts Options) Notifier {
	appID := opts.AppID
	if appID == "" {
		appID = powershellAppID
	}
	return &toastNotifier{appID: appID}
}

func (t *toastNotifier) Show(ctx context.Context, n Notification) error {
	script, err := os.CreateTemp("", "driverwatch-toast-*.ps1")
	if err != nil {
		return fmt.Errorf("write toast script: %w", err)
	}
	defer os.Remove(script.Name())
	if _, err := script.WriteString(toastScript); err != nil {
		script.Close()
		return fmt.Errorf("write toast script: %w", err)
	}
	script.Close()

	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive",
		"-ExecutionPolicy", "Bypass", "-File", script.Name(), "-xml", ToastXML(n), "-appId", t.appID)
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("show toast: %w: %s", err, out)
	}
	log.Info("notification shown", "current", n.Current.String(), "latest", n.Latest.Version.String())
	return nil
}
