//go:build linux

package kernel

import (
	"bytes"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	version     = Version{}
	versionOnce = sync.Once{}
)

// Get
// returns the running kernel release, parsed once.
func Get() Version {
	versionOnce.Do(func() {
		uts := &unix.Utsname{}
		if err := unix.Uname(uts); err != nil {
			return
		}
		release := uts.Release[:]
		if i := bytes.IndexByte(release, 0); i >= 0 {
			release = release[:i]
		}
		major, minor, patch, flavor, parseErr := parseKernelVersion(string(release))
		version.Major = major
		version.Minor = minor
		version.Patch = patch
		version.Flavor = flavor
		version.validate = parseErr == nil
	})
	return version
}
