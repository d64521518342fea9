package mysql

import (
	"strconv"
	"strings"

	"github.com/pingcap/errors"
)

const mariadbVersionMarker = "mariadb"

// ServerVersion is the parsed form of the version string the server reports
// in the initial greeting, e.g. "8.0.33" or "5.5.5-10.6.12-MariaDB".
type ServerVersion struct {
	Major int
	Minor int
	Patch int

	// MariaDB reports whether the server identified itself as MariaDB. Some
	// session variables and SQL dialect details are gated on this.
	MariaDB bool

	raw string
}

// ParseServerVersion parses the version string of the initial handshake.
// MariaDB versions may carry a leading "5.5.5-" replication hack prefix which
// is stripped before reading the real triplet.
func ParseServerVersion(v string) (ServerVersion, error) {
	sv := ServerVersion{raw: v}

	lower := strings.ToLower(v)
	if strings.Contains(lower, mariadbVersionMarker) {
		sv.MariaDB = true
		v = strings.TrimPrefix(v, "5.5.5-")
	}

	numbers, _, _ := strings.Cut(v, "-")

	major, rest, _ := strings.Cut(numbers, ".")
	minor, patch, _ := strings.Cut(rest, ".")

	var err error
	if sv.Major, err = strconv.Atoi(major); err != nil {
		return sv, errors.Errorf("cannot parse major version of %q", sv.raw)
	}
	if minor != "" {
		if sv.Minor, err = strconv.Atoi(minor); err != nil {
			return sv, errors.Errorf("cannot parse minor version of %q", sv.raw)
		}
	}
	if patch != "" {
		// trim trailing junk like "33a"
		digits := patch
		for i, r := range patch {
			if r < '0' || r > '9' {
				digits = patch[:i]
				break
			}
		}
		if digits != "" {
			if sv.Patch, err = strconv.Atoi(digits); err != nil {
				return sv, errors.Errorf("cannot parse patch version of %q", sv.raw)
			}
		}
	}

	return sv, nil
}

func (v ServerVersion) String() string {
	if v.raw != "" {
		return v.raw
	}
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
}

func (v ServerVersion) compare(major, minor, patch int) int {
	if v.Major != major {
		if v.Major < major {
			return -1
		}
		return 1
	}
	if v.Minor != minor {
		if v.Minor < minor {
			return -1
		}
		return 1
	}
	if v.Patch != patch {
		if v.Patch < patch {
			return -1
		}
		return 1
	}
	return 0
}

// AtLeast reports whether the version is greater than or equal to the given
// triplet.
func (v ServerVersion) AtLeast(major, minor, patch int) bool {
	return v.compare(major, minor, patch) >= 0
}

// Less reports whether the version is strictly lower than the given triplet.
func (v ServerVersion) Less(major, minor, patch int) bool {
	return v.compare(major, minor, patch) < 0
}

// CompareServerVersions compares version triplet strings, ignoring anything
// past `-` in version. Returns 0 if equal, 1 if a is higher, -1 if lower.
func CompareServerVersions(a, b string) (int, error) {
	av, err := ParseServerVersion(a)
	if err != nil {
		return 0, err
	}
	bv, err := ParseServerVersion(b)
	if err != nil {
		return 0, err
	}

	return av.compare(bv.Major, bv.Minor, bv.Patch), nil
}
