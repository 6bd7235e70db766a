package driver

import (
	"errors"
	"testing"
)

func TestParseHostMatchesCatalogForm(t *testing.T) {
	tests := []struct {
		host    string
		catalog string
	}{
		{"31.0.15.5222", "552.22"},
		{"31.0.15.5110", "551.10"},
		{"32.0.15.6094", "560.94"},
		{"30.0.14.7141", "471.41"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			h, err := ParseHost(tt.host)
			if err != nil {
				t.Fatalf("ParseHost(%q): %v", tt.host, err)
			}
			c, err := ParseCatalog(tt.catalog)
			if err != nil {
				t.Fatalf("ParseCatalog(%q): %v", tt.catalog, err)
			}
			if !h.Equal(c) {
				t.Fatalf("host %q -> %d, catalog %q -> %d", tt.host, h.Int(), tt.catalog, c.Int())
			}
			if h.String() != tt.catalog {
				t.Fatalf("host display = %q, want %q", h.String(), tt.catalog)
			}
		})
	}
}

func TestNormalizeDispatchesBySource(t *testing.T) {
	h, err := Normalize("31.0.15.5222", HostFormat)
	if err != nil {
		t.Fatal(err)
	}
	c, err := Normalize("552.22", CatalogFormat)
	if err != nil {
		t.Fatal(err)
	}
	if h.Compare(c) != 0 {
		t.Fatalf("expected equal versions, got %d vs %d", h.Int(), c.Int())
	}
}

func TestParseCatalogIgnoresDots(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"552.22", 55222},
		{"55222", 55222},
		{"552.2.2", 55222},
		{" 560.94 ", 56094},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, err := ParseCatalog(tt.raw)
			if err != nil {
				t.Fatalf("ParseCatalog(%q): %v", tt.raw, err)
			}
			if v.Int() != tt.want {
				t.Fatalf("ParseCatalog(%q) = %d, want %d", tt.raw, v.Int(), tt.want)
			}
		})
	}

	undotted := DownloadInfo{Version: MustParseCatalog("55222")}
	if undotted.Version.String() != "55222" || undotted.SkipID() != "skip_55222" {
		t.Fatalf("undotted display = %q, skip id = %q", undotted.Version, undotted.SkipID())
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		src  Source
	}{
		{"catalog letters", "abc", CatalogFormat},
		{"catalog only dots", "..", CatalogFormat},
		{"catalog inner space", "552. 22", CatalogFormat},
		{"catalog sign", "-552.22", CatalogFormat},
		{"catalog empty", "", CatalogFormat},
		{"host letters", "31.0.x.5222", HostFormat},
		{"host short", "1.2", HostFormat},
		{"host empty segment", "31..15.5222", HostFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, tt.src)
			if !errors.Is(err, ErrMalformedVersion) {
				t.Fatalf("Normalize(%q) err = %v, want ErrMalformedVersion", tt.raw, err)
			}
		})
	}
}

func TestVersionOrderingIsIntegerMagnitude(t *testing.T) {
	older := MustParseCatalog("551.10")
	newer := MustParseCatalog("552.22")

	if !older.Less(newer) {
		t.Fatal("551.10 should be less than 552.22")
	}
	if newer.Compare(older) != 1 || older.Compare(newer) != -1 {
		t.Fatal("Compare is not antisymmetric")
	}
	// No semantic precedence: digits are concatenated before comparing.
	if !MustParseCatalog("99.99").Less(MustParseCatalog("100.00")) {
		t.Fatal("9999 should be less than 10000")
	}
}

func TestSkipIDStripsSeparators(t *testing.T) {
	info := DownloadInfo{Version: MustParseCatalog("552.22")}
	if got := info.SkipID(); got != "skip_55222" {
		t.Fatalf("SkipID = %q, want skip_55222", got)
	}
}

func TestDownloadInfoEqual(t *testing.T) {
	a := DownloadInfo{Version: MustParseCatalog("552.22"), DownloadURL: "https://example.com/a.exe"}
	b := DownloadInfo{Version: MustParseCatalog("552.22"), DownloadURL: "https://example.com/a.exe"}
	c := DownloadInfo{Version: MustParseCatalog("552.22"), DownloadURL: "https://example.com/b.exe"}

	if !a.Equal(b) {
		t.Fatal("identical descriptors should be equal")
	}
	if a.Equal(c) {
		t.Fatal("different URLs should not be equal")
	}
}
