package plugin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// semverPattern validates version strings (simplified semver; pre-release
// and build metadata are accepted but ignored for ordering).
var semverPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// Version is a parsed semantic version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a semantic version string. The patch component is
// optional ("2.0" parses as 2.0.0).
func ParseVersion(v string) (Version, error) {
	if !semverPattern.MatchString(v) {
		return Version{}, fmt.Errorf("%w: malformed version %q", ErrInvalidArgument, v)
	}

	core := v
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}

	parts := strings.Split(core, ".")
	out := Version{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("%w: malformed version %q", ErrInvalidArgument, v)
		}
		switch i {
		case 0:
			out.Major = n
		case 1:
			out.Minor = n
		case 2:
			out.Patch = n
		}
	}
	return out, nil
}

// Compare returns -1, 0 or 1 as v is lower than, equal to or higher than
// other, comparing major, minor then patch.
func (v Version) Compare(other Version) int {
	for _, d := range []int{v.Major - other.Major, v.Minor - other.Minor, v.Patch - other.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

// String returns the canonical major.minor.patch form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
