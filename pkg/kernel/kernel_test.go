package kernel

import (
	"testing"
)

func TestParseKernelVersion(t *testing.T) {
	cases := []struct {
		in     string
		major  int
		minor  int
		patch  int
		flavor string
	}{
		{"6.1.0-18-amd64", 6, 1, 0, "-18-amd64"},
		{"5.15.90.1-microsoft-standard-WSL2", 5, 15, 90, ".1-microsoft-standard-WSL2"},
		{"6.8.0", 6, 8, 0, ""},
	}
	for _, c := range cases {
		major, minor, patch, flavor, err := parseKernelVersion(c.in)
		if err != nil {
			t.Fatal(c.in, err)
		}
		if major != c.major || minor != c.minor || patch != c.patch || flavor != c.flavor {
			t.Errorf("%s: got %d.%d.%d %q", c.in, major, minor, patch, flavor)
		}
	}
	if _, _, _, _, err := parseKernelVersion("bad"); err == nil {
		t.Error("expected error")
	}
}

func TestVersion_GTE(t *testing.T) {
	v := Version{Major: 6, Minor: 1, Patch: 3, validate: true}
	if !v.GTE(6, 1, 0) || !v.GTE(5, 19, 0) || !v.GTE(6, 1, 3) {
		t.Error("expected greater or equal")
	}
	if v.GTE(6, 2, 0) || v.GTE(7, 0, 0) {
		t.Error("expected less")
	}
}
