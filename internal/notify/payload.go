package notify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/breeze-rmm/driverwatch/internal/driver"
)

// Scheme is the protocol name the Windows toast activates.
const Scheme = "driverwatch"

// PayloadVersion is written as "v" so future payload changes can be told apart.
const PayloadVersion = "1"

// Action is the user's choice carried back by a notification.
type Action string

const (
	ActionDownload Action = "download"
	ActionSkip     Action = "skip"
)

// ErrUnknownAction is returned when a payload names no action we handle.
var ErrUnknownAction = errors.New("unknown notification action")

// Payload is everything a callback invocation knows about the decision that
// produced the notification.
type Payload struct {
	Action        Action
	DriverVersion string
	DownloadURL   string
}

// NewPayload builds the payload for info.
func NewPayload(action Action, info driver.DownloadInfo) Payload {
	return Payload{
		Action:        action,
		DriverVersion: info.Version.String(),
		DownloadURL:   info.DownloadURL,
	}
}

// Encode renders the payload as a query string.
func (p Payload) Encode() string {
	q := url.Values{}
	q.Set("v", PayloadVersion)
	q.Set("action", string(p.Action))
	q.Set("driverVersion", p.DriverVersion)
	q.Set("downloadURL", p.DownloadURL)
	return q.Encode()
}

// URI renders the payload as a protocol activation URI.
func (p Payload) URI() string {
	return Scheme + ":" + p.Encode()
}

// Parse decodes an activation argument. Both the bare query form and the
// "driverwatch:" / "driverwatch://?" URI forms are accepted.
func Parse(arg string) (Payload, error) {
	raw := strings.TrimSpace(arg)
	if rest, ok := cutPrefixFold(raw, Scheme+":"); ok {
		raw = rest
	}
	raw = strings.TrimPrefix(raw, "//")
	raw = strings.TrimPrefix(raw, "/")
	raw = strings.TrimPrefix(raw, "?")

	q, err := url.ParseQuery(raw)
	if err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	if v := q.Get("v"); v != "" && v != PayloadVersion {
		return Payload{}, fmt.Errorf("unsupported payload version %q", v)
	}

	return Payload{
		Action:        Action(q.Get("action")),
		DriverVersion: q.Get("driverVersion"),
		DownloadURL:   q.Get("downloadURL"),
	}, nil
}

// Known reports whether the action is one we dispatch.
func (p Payload) Known() bool {
	return p.Action == ActionDownload || p.Action == ActionSkip
}

// Info reconstructs the download descriptor named by the payload.
func (p Payload) Info() (driver.DownloadInfo, error) {
	if !p.Known() {
		return driver.DownloadInfo{}, fmt.Errorf("%w: %q", ErrUnknownAction, p.Action)
	}
	v, err := driver.ParseCatalog(p.DriverVersion)
	if err != nil {
		return driver.DownloadInfo{}, err
	}
	if p.Action == ActionDownload {
		u, err := url.Parse(p.DownloadURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return driver.DownloadInfo{}, fmt.Errorf("invalid download URL %q", p.DownloadURL)
		}
	}
	return driver.DownloadInfo{Version: v, DownloadURL: p.DownloadURL}, nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
