package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/breeze-rmm/driverwatch/internal/catalog"
	"github.com/breeze-rmm/driverwatch/internal/driver"
	"github.com/breeze-rmm/driverwatch/internal/notify"
)

type fakeProbe struct {
	v   *driver.Version
	err error
}

func (f fakeProbe) Current(context.Context) (*driver.Version, error) { return f.v, f.err }

type fakeCatalog struct {
	info    driver.DownloadInfo
	err     error
	calls   int
	profile catalog.Profile
}

func (f *fakeCatalog) LookupLatest(_ context.Context, p catalog.Profile) (driver.DownloadInfo, error) {
	f.calls++
	f.profile = p
	return f.info, f.err
}

type fakeSkips map[string]bool

func (f fakeSkips) IsSkipped(info driver.DownloadInfo) bool { return f[info.SkipID()] }

func version(s string) *driver.Version {
	v := driver.MustParseCatalog(s)
	return &v
}

func latest(s string) driver.DownloadInfo {
	return driver.DownloadInfo{Version: driver.MustParseCatalog(s), DownloadURL: "https://example.com/" + s + ".exe"}
}

var profile = catalog.Profile{SeriesID: "107", FamilyID: "904", OSID: "135", LanguageCode: "1033"}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		current *driver.Version
		latest  driver.DownloadInfo
		skips   fakeSkips
		want    Kind
	}{
		{"newer available", version("551.10"), latest("552.22"), nil, Available},
		{"up to date", version("552.22"), latest("552.22"), nil, UpToDate},
		{"up to date ignores skip", version("552.22"), latest("552.22"), fakeSkips{"skip_55222": true}, UpToDate},
		{"skipped", version("551.10"), latest("552.22"), fakeSkips{"skip_55222": true}, Skipped},
		{"other version skipped", version("551.10"), latest("552.22"), fakeSkips{"skip_55110": true}, Available},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := &fakeCatalog{info: tt.latest}
			e := NewEngine(fakeProbe{v: tt.current}, cat, tt.skips, profile, Options{})

			d, err := e.Decide(context.Background())
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if d.Kind != tt.want {
				t.Fatalf("Kind = %v, want %v", d.Kind, tt.want)
			}
			if !d.Current.Equal(*tt.current) || !d.Latest.Equal(tt.latest) {
				t.Fatalf("decision carries wrong versions: %+v", d)
			}
			if cat.profile != profile {
				t.Fatalf("catalog got profile %+v", cat.profile)
			}
		})
	}
}

func TestDecideNoDeviceSkipsCatalog(t *testing.T) {
	cat := &fakeCatalog{}
	d, err := NewEngine(fakeProbe{}, cat, fakeSkips{}, profile, Options{}).Decide(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != NoDevice {
		t.Fatalf("Kind = %v, want NoDevice", d.Kind)
	}
	if cat.calls != 0 {
		t.Fatal("catalog must not be queried without a device")
	}
}

func TestDecideProbeErrorAborts(t *testing.T) {
	boom := errors.New("wmi unavailable")
	cat := &fakeCatalog{}
	_, err := NewEngine(fakeProbe{err: boom}, cat, fakeSkips{}, profile, Options{}).Decide(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped probe error", err)
	}
	if cat.calls != 0 {
		t.Fatal("catalog must not be queried after a probe failure")
	}
}

func TestDecideCatalogErrorsAbort(t *testing.T) {
	for _, catErr := range []error{catalog.ErrCatalogUnavailable, catalog.ErrNoSuitableDriver} {
		t.Run(catErr.Error(), func(t *testing.T) {
			cat := &fakeCatalog{err: catErr}
			_, err := NewEngine(fakeProbe{v: version("551.10")}, cat, fakeSkips{}, profile, Options{}).Decide(context.Background())
			if !errors.Is(err, catErr) {
				t.Fatalf("err = %v, want %v", err, catErr)
			}
			if cat.calls != 1 {
				t.Fatalf("catalog calls = %d, want exactly 1", cat.calls)
			}
		})
	}
}

func TestDecideEmptyCatalogAsDecision(t *testing.T) {
	cat := &fakeCatalog{err: catalog.ErrNoSuitableDriver}
	e := NewEngine(fakeProbe{v: version("551.10")}, cat, fakeSkips{}, profile, Options{EmptyCatalogIsDecision: true})

	d, err := e.Decide(context.Background())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Kind != NoCatalogMatch {
		t.Fatalf("Kind = %v, want NoCatalogMatch", d.Kind)
	}

	// Transport failures stay errors even with the option set.
	cat.err = catalog.ErrCatalogUnavailable
	if _, err := e.Decide(context.Background()); !errors.Is(err, catalog.ErrCatalogUnavailable) {
		t.Fatalf("err = %v, want ErrCatalogUnavailable", err)
	}
}

func TestCheckOnlyNotifiesWhenAvailable(t *testing.T) {
	tests := []struct {
		name    string
		current *driver.Version
		skips   fakeSkips
		shown   int
	}{
		{"available", version("551.10"), nil, 1},
		{"up to date", version("552.22"), nil, 0},
		{"skipped", version("551.10"), fakeSkips{"skip_55222": true}, 0},
		{"no device", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []notify.Notification
			n := notify.NotifierFunc(func(_ context.Context, note notify.Notification) error {
				got = append(got, note)
				return nil
			})

			e := NewEngine(fakeProbe{v: tt.current}, &fakeCatalog{info: latest("552.22")}, tt.skips, profile, Options{})
			if _, err := Check(context.Background(), e, n); err != nil {
				t.Fatalf("Check: %v", err)
			}
			if len(got) != tt.shown {
				t.Fatalf("notifications = %d, want %d", len(got), tt.shown)
			}
			if tt.shown == 1 {
				dl := got[0].Download()
				if dl.Action != notify.ActionDownload || dl.DriverVersion != "552.22" || dl.DownloadURL != "https://example.com/552.22.exe" {
					t.Fatalf("download payload = %+v", dl)
				}
				if got[0].Skip().Action != notify.ActionSkip {
					t.Fatal("skip payload has wrong action")
				}
			}
		})
	}
}

func TestCheckNotifierFailure(t *testing.T) {
	n := notify.NotifierFunc(func(context.Context, notify.Notification) error {
		return errors.New("toast failed")
	})
	e := NewEngine(fakeProbe{v: version("551.10")}, &fakeCatalog{info: latest("552.22")}, fakeSkips{}, profile, Options{})

	d, err := Check(context.Background(), e, n)
	if !errors.Is(err, ErrNotify) {
		t.Fatalf("err = %v, want ErrNotify", err)
	}
	if d.Kind != Available {
		t.Fatalf("decision should still be reported, got %v", d.Kind)
	}
}
