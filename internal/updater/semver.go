package updater

import (
	"fmt"
	"strconv"
	"strings"
)

// Semver is the numeric core of a release version.
type Semver struct {
	Major int
	Minor int
	Patch int
	Pre   string // e.g. "rc.1"; empty for a final release
}

// ParseSemver parses "1.2.3", "v1.2.3", "1.2.3-rc.1" and ignores any
// "+build" metadata.
func ParseSemver(s string) (Semver, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	var v Semver
	if i := strings.IndexByte(s, '-'); i >= 0 {
		v.Pre = s[i+1:]
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Semver{}, fmt.Errorf("invalid semver: %q", s)
	}
	nums := [3]*int{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Semver{}, fmt.Errorf("invalid version component %q", p)
		}
		*nums[i] = n
	}
	return v, nil
}

// String returns the version as "major.minor.patch[-pre]".
func (v Semver) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != "" {
		s += "-" + v.Pre
	}
	return s
}

// LessThan reports whether v precedes other. A pre-release precedes its
// final release; pre-release tags compare lexically.
func (v Semver) LessThan(other Semver) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	if v.Patch != other.Patch {
		return v.Patch < other.Patch
	}
	switch {
	case v.Pre == other.Pre:
		return false
	case v.Pre == "":
		return false
	case other.Pre == "":
		return true
	default:
		return v.Pre < other.Pre
	}
}
