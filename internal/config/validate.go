package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationResult separates errors that must stop the run from values that
// were clamped or ignored.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

// HasFatals reports whether the configuration is unusable.
func (r ValidationResult) HasFatals() bool { return len(r.Fatals) > 0 }

// ValidateTiered checks the config. Out-of-range numbers are clamped in place
// and reported as warnings; missing profile fields and unusable URLs are fatal.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	for key, val := range map[string]string{
		"series_id":     c.SeriesID,
		"family_id":     c.FamilyID,
		"os_id":         c.OSID,
		"language_code": c.LanguageCode,
	} {
		if strings.TrimSpace(val) == "" {
			r.Fatals = append(r.Fatals, fmt.Errorf("%s must not be empty", key))
		}
	}

	if c.CatalogURL == "" {
		r.Fatals = append(r.Fatals, fmt.Errorf("catalog_url must not be empty"))
	} else if u, err := url.Parse(c.CatalogURL); err != nil {
		r.Fatals = append(r.Fatals, fmt.Errorf("catalog_url %q is not a valid URL: %w", c.CatalogURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		r.Fatals = append(r.Fatals, fmt.Errorf("catalog_url scheme must be http or https, got %q", u.Scheme))
	}

	if strings.TrimSpace(c.ArchiverPath) == "" {
		r.Fatals = append(r.Fatals, fmt.Errorf("7zip_path must not be empty"))
	}

	clamp(&r, "catalog_timeout_seconds", &c.CatalogTimeoutSeconds, 1, 300)
	clamp(&r, "catalog_max_retries", &c.CatalogMaxRetries, 0, 10)
	clamp(&r, "download_timeout_minutes", &c.DownloadTimeoutMinutes, 0, 24*60)
	clamp(&r, "min_free_disk_mb", &c.MinFreeDiskMB, 0, 1024*1024)
	clamp(&r, "log_max_size_mb", &c.LogMaxSizeMB, 1, 1024)
	clamp(&r, "log_max_backups", &c.LogMaxBackups, 1, 50)

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
		c.LogFormat = "text"
	}

	for _, err := range r.Warnings {
		log.Warn("config validation", "error", err)
	}
	for _, err := range r.Fatals {
		log.Error("config validation", "error", err)
	}
	return r
}

func clamp(r *ValidationResult, key string, v *int, lo, hi int) {
	switch {
	case *v < lo:
		r.Warnings = append(r.Warnings, fmt.Errorf("%s %d is below minimum %d, clamping", key, *v, lo))
		*v = lo
	case *v > hi:
		r.Warnings = append(r.Warnings, fmt.Errorf("%s %d exceeds maximum %d, clamping", key, *v, hi))
		*v = hi
	}
}
