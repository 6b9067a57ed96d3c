// Package version provides the regflow version and PeakRDL version checks.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the regflow release.
const Current = "0.4.0"

// MinPeakRDL is the oldest PeakRDL release whose regblock, uvm and html
// exporters accept the generated SystemRDL.
const MinPeakRDL = "1.0"

// Version is a parsed "major.minor[.patch]" version.
type Version struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Parse parses a "major.minor" or "major.minor.patch" version string. A
// leading "v" is accepted.
func Parse(s string) (Version, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor[.patch]", s)
	}

	var nums [3]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || p == "" {
			return Version{}, fmt.Errorf("invalid version %q: bad component %q", s, p)
		}
		nums[i] = uint16(n)
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the version as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 as v is older, equal or newer than other.
func (v Version) Compare(other Version) int {
	a := [3]uint16{v.Major, v.Minor, v.Patch}
	b := [3]uint16{other.Major, other.Minor, other.Patch}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Compatible returns true if the other version has the same major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// Extract finds the first version-looking token in a tool's --version
// output, e.g. "peakrdl 1.1.0" or "v1.2".
func Extract(output string) (Version, error) {
	for _, tok := range strings.Fields(output) {
		if v, err := Parse(strings.Trim(tok, ",;()")); err == nil {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("no version in %q", strings.TrimSpace(output))
}

// CheckPeakRDL reports an error when the PeakRDL --version output names a
// release older than MinPeakRDL or of a different major version.
func CheckPeakRDL(output string) (Version, error) {
	v, err := Extract(output)
	if err != nil {
		return Version{}, err
	}
	minimum, _ := Parse(MinPeakRDL)
	if !v.Compatible(minimum) || v.Compare(minimum) < 0 {
		return v, fmt.Errorf("peakrdl %s is not supported: need %d.x, at least %s", v, minimum.Major, MinPeakRDL)
	}
	return v, nil
}

// String returns the regflow version banner.
func String() string {
	return "regflow version " + Current
}
