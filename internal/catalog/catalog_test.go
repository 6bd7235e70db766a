package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/breeze-rmm/driverwatch/internal/driver"
	"github.com/breeze-rmm/driverwatch/internal/httputil"
)

var testProfile = Profile{SeriesID: "107", FamilyID: "904", OSID: "135", LanguageCode: "1033"}

func entry(version, url string) Entry {
	return Entry{DownloadInfo: EntryInfo{Version: version, DownloadURL: url}}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL + "/lookup.php", Timeout: 5 * time.Second, Retry: httputil.NoRetry()})
	c.client = srv.Client()
	return c
}

func TestSelectLatestSkipsMalformedAndKeepsFirstMax(t *testing.T) {
	doc := Response{IDS: []Entry{
		entry("abc", "https://example.com/bad.exe"),
		entry("551.10", "https://example.com/551.exe"),
		entry("552.22", "https://example.com/552-first.exe"),
		entry("552.22", "https://example.com/552-second.exe"),
	}}

	got, err := SelectLatest(doc)
	if err != nil {
		t.Fatalf("SelectLatest: %v", err)
	}
	if got.Version.String() != "552.22" {
		t.Fatalf("version = %s, want 552.22", got.Version)
	}
	if got.DownloadURL != "https://example.com/552-first.exe" {
		t.Fatalf("tie should keep first occurrence, got %s", got.DownloadURL)
	}
}

func TestSelectLatestAcceptsUndottedVersion(t *testing.T) {
	doc := Response{IDS: []Entry{
		entry("55222", "https://example.com/a.exe"),
		entry("551.10", "https://example.com/b.exe"),
	}}

	got, err := SelectLatest(doc)
	if err != nil {
		t.Fatalf("SelectLatest: %v", err)
	}
	if got.DownloadURL != "https://example.com/a.exe" || got.Version.String() != "55222" {
		t.Fatalf("got %s from %s, want 55222 from a.exe", got.Version, got.DownloadURL)
	}
}

func TestSelectLatestNoParseableEntries(t *testing.T) {
	tests := []struct {
		name string
		doc  Response
	}{
		{"empty", Response{}},
		{"all malformed", Response{IDS: []Entry{entry("abc", "x"), entry("", "y")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SelectLatest(tt.doc); !errors.Is(err, ErrNoSuitableDriver) {
				t.Fatalf("err = %v, want ErrNoSuitableDriver", err)
			}
		})
	}
}

func TestLookupLatestSendsProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		want := map[string]string{
			"func":            "DriverManualLookup",
			"psid":            "107",
			"pfid":            "904",
			"osID":            "135",
			"languageCode":    "1033",
			"beta":            "null",
			"isWHQL":          "0",
			"numberOfResults": "10",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("query %s = %q, want %q", k, got, v)
			}
		}
		if r.Header.Get("Accept") != "text/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		json.NewEncoder(w).Encode(Response{IDS: []Entry{
			entry("551.10", "https://example.com/551.exe"),
			entry("552.22", "https://example.com/552.exe"),
		}})
	})

	info, err := c.LookupLatest(context.Background(), testProfile)
	if err != nil {
		t.Fatalf("LookupLatest: %v", err)
	}
	want := driver.DownloadInfo{Version: driver.MustParseCatalog("552.22"), DownloadURL: "https://example.com/552.exe"}
	if !info.Equal(want) {
		t.Fatalf("got %+v, want %+v", info, want)
	}
}

func TestLookupLatestNoSuitableDriver(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"IDS":[{"downloadInfo":{"Version":"n/a","DownloadURL":""}}]}`))
	})

	_, err := c.LookupLatest(context.Background(), testProfile)
	if !errors.Is(err, ErrNoSuitableDriver) {
		t.Fatalf("err = %v, want ErrNoSuitableDriver", err)
	}
	if errors.Is(err, ErrCatalogUnavailable) {
		t.Fatal("empty answer must not be reported as unavailable")
	}
}

func TestLookupLatestUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>maintenance</html>"))
		}},
		{"wrong shape", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"IDS":"nope"}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.LookupLatest(context.Background(), testProfile)
			if !errors.Is(err, ErrCatalogUnavailable) {
				t.Fatalf("err = %v, want ErrCatalogUnavailable", err)
			}
		})
	}
}

func TestLookupLatestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, Retry: httputil.NoRetry()})

	_, err := c.LookupLatest(context.Background(), testProfile)
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("err = %v, want ErrCatalogUnavailable", err)
	}
}

func TestLookupURLKeepsExistingQuery(t *testing.T) {
	c := New(Config{BaseURL: "https://example.com/svc.php?token=abc"})
	raw, err := c.LookupURL(testProfile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(raw, "token=abc") || !strings.Contains(raw, "psid=107") {
		t.Fatalf("unexpected URL %s", raw)
	}
}
