// Package catalog queries the vendor driver lookup service.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/breeze-rmm/driverwatch/internal/driver"
	"github.com/breeze-rmm/driverwatch/internal/httputil"
	"github.com/breeze-rmm/driverwatch/internal/logging"
)

var log = logging.L("catalog")

var (
	// ErrCatalogUnavailable covers transport, status and schema failures.
	ErrCatalogUnavailable = errors.New("driver catalog unavailable")
	// ErrNoSuitableDriver means the service answered but no entry had a
	// usable version.
	ErrNoSuitableDriver = errors.New("no suitable driver versions found")
)

// maxBodySize bounds the lookup response; real answers are a few KB.
const maxBodySize = 4 << 20

// Profile identifies the hardware/OS/locale combination to look up.
type Profile struct {
	SeriesID     string
	FamilyID     string
	OSID         string
	LanguageCode string
}

// Response is the lookup document.
type Response struct {
	IDS []Entry `json:"IDS"`
}

// Entry is one candidate in the response.
type Entry struct {
	DownloadInfo EntryInfo `json:"downloadInfo"`
}

// EntryInfo carries the raw version and URL of a candidate.
type EntryInfo struct {
	Version     string `json:"Version"`
	DownloadURL string `json:"DownloadURL"`
}

// Config holds catalog client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   httputil.RetryConfig
}

// Client performs driver lookups.
type Client struct {
	config Config
	client *http.Client
}

// New creates a Client. A zero timeout falls back to 30 seconds.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// LookupURL builds the manual lookup request URL for p.
func (c *Client) LookupURL(p Profile) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid catalog URL: %w", err)
	}

	q := u.Query()
	q.Set("func", "DriverManualLookup")
	q.Set("psid", p.SeriesID)
	q.Set("pfid", p.FamilyID)
	q.Set("osID", p.OSID)
	q.Set("languageCode", p.LanguageCode)
	q.Set("beta", "null")
	q.Set("isWHQL", "0")
	q.Set("dltype", "-1")
	q.Set("dch", "1")
	q.Set("upCRD", "null")
	q.Set("qnf", "0")
	q.Set("sort1", "0")
	q.Set("numberOfResults", "10")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// LookupLatest returns the newest driver the catalog lists for p.
func (c *Client) LookupLatest(ctx context.Context, p Profile) (driver.DownloadInfo, error) {
	lookupURL, err := c.LookupURL(p)
	if err != nil {
		return driver.DownloadInfo{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	headers := http.Header{}
	headers.Set("Accept", "text/json")

	log.Debug("querying catalog", "seriesId", p.SeriesID, "familyId", p.FamilyID, "osId", p.OSID, "languageCode", p.LanguageCode)

	resp, err := httputil.Get(ctx, c.client, lookupURL, headers, c.config.Retry)
	if err != nil {
		return driver.DownloadInfo{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return driver.DownloadInfo{}, fmt.Errorf("%w: lookup returned status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return driver.DownloadInfo{}, fmt.Errorf("%w: read body: %w", ErrCatalogUnavailable, err)
	}

	var doc Response
	if err := json.Unmarshal(body, &doc); err != nil {
		return driver.DownloadInfo{}, fmt.Errorf("%w: decode body: %w", ErrCatalogUnavailable, err)
	}

	return SelectLatest(doc)
}

// SelectLatest scans entries in order and keeps the first entry with the
// strictly largest version. Entries whose version does not parse are skipped.
func SelectLatest(doc Response) (driver.DownloadInfo, error) {
	var (
		best  driver.DownloadInfo
		found bool
	)
	for i, entry := range doc.IDS {
		v, err := driver.ParseCatalog(entry.DownloadInfo.Version)
		if err != nil {
			log.Debug("skipping catalog entry", "index", i, "version", entry.DownloadInfo.Version, "error", err)
			continue
		}
		if !found || best.Version.Less(v) {
			best = driver.DownloadInfo{Version: v, DownloadURL: entry.DownloadInfo.DownloadURL}
			found = true
		}
	}
	if !found {
		return driver.DownloadInfo{}, ErrNoSuitableDriver
	}
	return best, nil
}
