package driver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedVersion is returned when a version string does not match the
// digit pattern expected for its source.
var ErrMalformedVersion = errors.New("malformed driver version")

// Source identifies where a raw version string came from.
type Source int

const (
	// HostFormat is the Windows-assigned form reported by the display
	// adapter, e.g. "31.0.15.5222".
	HostFormat Source = iota
	// CatalogFormat is the vendor form returned by the lookup service,
	// e.g. "552.22".
	CatalogFormat
)

func (s Source) String() string {
	switch s {
	case HostFormat:
		return "host"
	case CatalogFormat:
		return "catalog"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// vendorDigits is the length of the vendor suffix embedded in a host version.
const vendorDigits = 5

// Version is a normalized driver release. The zero value is not a valid
// version; construct one with Normalize, ParseHost or ParseCatalog.
type Version struct {
	n       int64
	display string
}

// Normalize parses raw according to its source.
func Normalize(raw string, src Source) (Version, error) {
	switch src {
	case HostFormat:
		return ParseHost(raw)
	case CatalogFormat:
		return ParseCatalog(raw)
	default:
		return Version{}, fmt.Errorf("unknown version source %v", src)
	}
}

// ParseHost extracts the vendor version from a host driver version string.
// The last five digits of the concatenated segments carry the vendor
// version, with a decimal point before the final two.
func ParseHost(raw string) (Version, error) {
	raw = strings.TrimSpace(raw)
	segments := strings.Split(raw, ".")
	var digits strings.Builder
	for _, seg := range segments {
		if seg == "" || !allDigits(seg) {
			return Version{}, fmt.Errorf("%w: %q (host)", ErrMalformedVersion, raw)
		}
		digits.WriteString(seg)
	}

	all := digits.String()
	if len(all) < vendorDigits {
		return Version{}, fmt.Errorf("%w: %q has fewer than %d digits", ErrMalformedVersion, raw, vendorDigits)
	}
	tail := all[len(all)-vendorDigits:]
	return ParseCatalog(tail[:3] + "." + tail[3:])
}

// ParseCatalog parses a vendor-form version such as "552.22". Dots are
// dropped and the remaining digits compared as one integer, so "55222"
// denotes the same release. The raw form is kept for display.
func ParseCatalog(raw string) (Version, error) {
	raw = strings.TrimSpace(raw)
	digits := strings.ReplaceAll(raw, ".", "")
	if digits == "" || !allDigits(digits) {
		return Version{}, fmt.Errorf("%w: %q (catalog)", ErrMalformedVersion, raw)
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrMalformedVersion, raw, err)
	}
	return Version{n: n, display: raw}, nil
}

// MustParseCatalog is like ParseCatalog but panics on error. Intended for
// tests and constants.
func MustParseCatalog(raw string) Version {
	v, err := ParseCatalog(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Int returns the comparable integer form ("552.22" -> 55222).
func (v Version) Int() int64 { return v.n }

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool { return v.display == "" }

// String returns the vendor display form.
func (v Version) String() string { return v.display }

// Compare returns -1, 0 or +1. Ordering is plain integer magnitude.
func (v Version) Compare(o Version) int {
	switch {
	case v.n < o.n:
		return -1
	case v.n > o.n:
		return 1
	default:
		return 0
	}
}

// Equal reports whether both versions denote the same release.
func (v Version) Equal(o Version) bool { return v.n == o.n }

// Less reports whether v is older than o.
func (v Version) Less(o Version) bool { return v.n < o.n }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
