package version

import (
	"strings"
	"testing"
	"time"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	return func() {
		Version = origVersion
		GitCommit = origCommit
		BuildTime = origBuildTime
	}
}

func TestGetVersionInfoFromLdflags(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.4.0"
	GitCommit = "abc1234"
	BuildTime = "2024-03-01T10:00:00Z"

	info := GetVersionInfo()
	if info.Version != "1.4.0" {
		t.Errorf("expected version 1.4.0, got %q", info.Version)
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("expected commit abc1234, got %q", info.GitCommit)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !info.BuildDate.Equal(want) {
		t.Errorf("expected build date %v, got %v", want, info.BuildDate)
	}
	if info.Platform == "" || info.GoVersion == "" {
		t.Error("expected platform and go version")
	}
}

func TestGetVersionInfoDevIsNotRelease(t *testing.T) {
	defer saveAndRestore()()
	Version = "dev"
	GitCommit = ""
	BuildTime = ""

	info := GetVersionInfo()
	if info.Version == "dev" && info.IsRelease {
		t.Error("dev should not be a release")
	}
}

func TestGetShortVersion(t *testing.T) {
	defer saveAndRestore()()
	Version = "2.0.0"
	GitCommit = "deadbee"

	got := GetShortVersion()
	if !strings.HasPrefix(got, "2.0.0-deadbee") {
		t.Errorf("unexpected short version %q", got)
	}
}

func TestInfoString(t *testing.T) {
	info := &Info{
		Version:   "1.0.0",
		GitCommit: "abc1234",
		GoVersion: "go1.26.0",
		Platform:  "linux/amd64",
		BuildDate: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	want := "1.0.0-abc1234 linux/amd64 go1.26.0 (built 2024-01-02T03:04:05Z)"
	if got := info.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUserAgent(t *testing.T) {
	defer saveAndRestore()()
	Version = "0.9.1"

	if got := UserAgent("flyio-api-go"); got != "flyio-api-go/0.9.1" {
		t.Errorf("unexpected user agent %q", got)
	}
}
