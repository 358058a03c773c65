package upload

import (
	"strconv"
	"strings"
	"time"
)

// TimezonePlaceholder replaces the last-login directory when the hour
// cannot be derived.
const TimezonePlaceholder = "checkTimezone"

// UserRecord is the authenticated user as seen by the upload endpoint.
type UserRecord struct {
	UID        int64  `json:"uid" yaml:"uid"`
	PID        int64  `json:"pid" yaml:"pid"`
	Username   string `json:"username" yaml:"username"`
	Name       string `json:"name,omitempty" yaml:"name"`
	FirstName  string `json:"first_name,omitempty" yaml:"first_name"`
	MiddleName string `json:"middle_name,omitempty" yaml:"middle_name"`
	LastName   string `json:"last_name,omitempty" yaml:"last_name"`
	// LastLogin is a unix timestamp in seconds.
	LastLogin int64 `json:"lastlogin,omitempty" yaml:"lastlogin"`
}

// Authenticated reports whether the record belongs to a logged-in user.
func (u *UserRecord) Authenticated() bool {
	return u != nil && u.Username != ""
}

// Subdirectory selects how a per-user directory name is derived.
type Subdirectory int

const (
	SubdirNone Subdirectory = iota
	SubdirName
	SubdirUsername
	SubdirFullName
	SubdirUID
	SubdirPID
	SubdirLastLoginHour
)

var subdirByField = map[string]Subdirectory{
	"":          SubdirNone,
	"none":      SubdirNone,
	"name":      SubdirName,
	"username":  SubdirUsername,
	"fullname":  SubdirFullName,
	"uid":       SubdirUID,
	"pid":       SubdirPID,
	"lastlogin": SubdirLastLoginHour,
}

// ParseSubdirectory maps a configuration field name to a strategy.
func ParseSubdirectory(field string) (Subdirectory, bool) {
	s, ok := subdirByField[strings.ToLower(strings.TrimSpace(field))]
	return s, ok
}

func (s Subdirectory) String() string {
	switch s {
	case SubdirName:
		return "name"
	case SubdirUsername:
		return "username"
	case SubdirFullName:
		return "fullname"
	case SubdirUID:
		return "uid"
	case SubdirPID:
		return "pid"
	case SubdirLastLoginHour:
		return "lastlogin"
	default:
		return "none"
	}
}

// Derive returns the sanitized directory name for u, or "" when nothing
// should be appended. loc is the zone for the last-login hour; a nil loc
// yields TimezonePlaceholder.
func (s Subdirectory) Derive(u *UserRecord, loc *time.Location) string {
	if u == nil || s == SubdirNone {
		return ""
	}

	var dir string
	switch s {
	case SubdirName:
		dir = u.Name
	case SubdirUsername:
		dir = u.Username
	case SubdirFullName:
		parts := make([]string, 0, 3)
		for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		dir = strings.Join(parts, "_")
	case SubdirUID:
		dir = strconv.FormatInt(u.UID, 10)
	case SubdirPID:
		dir = strconv.FormatInt(u.PID, 10)
	case SubdirLastLoginHour:
		dir = lastLoginHour(u.LastLogin, loc)
	}

	return sanitizeDirName(dir)
}

func lastLoginHour(ts int64, loc *time.Location) string {
	if loc == nil {
		return TimezonePlaceholder
	}
	return time.Unix(ts, 0).In(loc).Format("20060102-15")
}

// sanitizeDirName keeps [0-9a-zA-Z.-] and turns everything else into '_'.
// Names made only of dots are neutralized so they cannot climb the tree.
func sanitizeDirName(s string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
	if out != "" && strings.Trim(out, ".") == "" {
		return strings.Repeat("_", len(out))
	}
	return out
}
