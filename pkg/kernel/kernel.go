package kernel

import "fmt"

type Version struct {
	Major    int
	Minor    int
	Patch    int
	Flavor   string
	validate bool
}

func (v Version) Invalidate() bool {
	return !v.validate
}

// GTE
// reports whether v is at least major.minor.patch.
func (v Version) GTE(major, minor, patch int) bool {
	return Compare(v, Version{Major: major, Minor: minor, Patch: patch}) >= 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d%s", v.Major, v.Minor, v.Patch, v.Flavor)
}

func Compare(a, b Version) int {
	if a.Major > b.Major {
		return 1
	} else if a.Major < b.Major {
		return -1
	}

	if a.Minor > b.Minor {
		return 1
	} else if a.Minor < b.Minor {
		return -1
	}

	if a.Patch > b.Patch {
		return 1
	} else if a.Patch < b.Patch {
		return -1
	}

	return 0
}

func parseKernelVersion(kernelVersionStr string) (major int, minor int, patch int, flavor string, err error) {
	var (
		parsed  int
		partial string
	)

	parsed, _ = fmt.Sscanf(kernelVersionStr, "%d.%d%s", &major, &minor, &partial)
	if parsed < firstNumberOfParts {
		err = fmt.Errorf("cannot parse kernel version: %s", kernelVersionStr)
		return
	}

	parsed, _ = fmt.Sscanf(partial, ".%d%s", &patch, &flavor)
	if parsed < secondNumberOfParts {
		flavor = partial
	}

	return
}

const (
	firstNumberOfParts  = 2
	secondNumberOfParts = 1
)
