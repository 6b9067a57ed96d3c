package regmap

import "strings"

// Access is the software access policy of a field.
type Access uint8

const (
	// AccessRO is read-only.
	AccessRO Access = iota
	// AccessRW is read-write.
	AccessRW
	// AccessWO is write-only.
	AccessWO
	// AccessW1C is write-one-to-clear.
	AccessW1C
)

// String returns the spreadsheet spelling of the access policy.
func (a Access) String() string {
	switch a {
	case AccessRO:
		return "ro"
	case AccessRW:
		return "rw"
	case AccessWO:
		return "wo"
	case AccessW1C:
		return "w1c"
	default:
		return "unknown"
	}
}

// SW returns the SystemRDL sw property value.
func (a Access) SW() string {
	switch a {
	case AccessRW:
		return "rw"
	case AccessWO, AccessW1C:
		return "w"
	default:
		return "r"
	}
}

// OnWrite returns the SystemRDL onwrite property value, or "" when the
// access policy has no side effect on write.
func (a Access) OnWrite() string {
	if a == AccessW1C {
		return "woclr"
	}
	return ""
}

// Writable reports whether software can write the field.
func (a Access) Writable() bool {
	return a != AccessRO
}

// ParseAccess parses an access string case-insensitively.
// Unrecognized values fall back to AccessRO with ok=false.
func ParseAccess(s string) (access Access, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rw":
		return AccessRW, true
	case "ro":
		return AccessRO, true
	case "wo":
		return AccessWO, true
	case "w1c":
		return AccessW1C, true
	default:
		return AccessRO, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Access) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown values decode
// as read-only, matching the spreadsheet reader.
func (a *Access) UnmarshalText(text []byte) error {
	*a, _ = ParseAccess(string(text))
	return nil
}
