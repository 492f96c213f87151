package version

import "testing"

func TestCurrentVersion(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	cases := map[string]string{
		" v1.2.3 ":   "v1.2.3",
		"1.4":        "v1.4.0",
		"v2.0.0-rc1": "v2.0.0-rc1",
		"   ":        "dev",
		"dev":        "dev",
	}
	for in, want := range cases {
		Version = in
		if got := Current(); got != want {
			t.Fatalf("Current(%q): got %q want %q", in, got, want)
		}
	}
}

func TestIsRelease(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "v1.0.0"
	if !IsRelease() {
		t.Fatal("v1.0.0 is a release")
	}
	Version = "v1.0.0-beta.1"
	if IsRelease() {
		t.Fatal("prerelease is not a release")
	}
	Version = "dev"
	if IsRelease() {
		t.Fatal("dev is not a release")
	}
}
