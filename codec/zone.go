package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/siddontang/go-log/log"
)

const (
	zonePrefixPosix = "posix/"
	zonePrefixRight = "right/"
)

// ConvertZoneID resolves a MySQL time-zone name to a location. Zone database
// names may carry a leading `posix/` or `right/` prefix, and a few names
// MySQL reports are unknown to the zone database and need special mapping.
// An unresolvable name falls back to the process default zone with a logged
// warning; this never fails.
func ConvertZoneID(id string) *time.Location {
	realID := id
	if strings.HasPrefix(id, zonePrefixPosix) || strings.HasPrefix(id, zonePrefixRight) {
		realID = id[len(zonePrefixPosix):]
	}

	switch realID {
	case "Factory":
		// The "Factory" time zone is UTC.
		return time.UTC
	case "America/Nuuk":
		// Same zone including DST; older zone databases only know the old
		// name.
		if loc, err := time.LoadLocation("America/Godthab"); err == nil {
			return loc
		}
	case "ROC":
		// Republic of China, 1912-1949. Too old for most zone databases.
		return time.FixedZone("+08:00", 8*60*60)
	}

	if loc, err := loadZone(realID); err == nil {
		return loc
	}

	log.Warnf("server timezone %q is unknown, falling back to process default zone", id)
	return time.Local
}

func loadZone(id string) (*time.Location, error) {
	if loc, err := parseOffsetZone(id); err == nil {
		return loc, nil
	}
	return time.LoadLocation(id)
}

// parseOffsetZone handles fixed offsets like "+08:00" or "-05:30", which
// MySQL reports for offset-configured servers and LoadLocation rejects.
func parseOffsetZone(id string) (*time.Location, error) {
	if len(id) < 2 || (id[0] != '+' && id[0] != '-') {
		return nil, fmt.Errorf("not an offset zone: %q", id)
	}

	body := id[1:]
	hh, mm, found := strings.Cut(body, ":")
	if !found {
		mm = "0"
	}

	hours, err := strconv.Atoi(hh)
	if err != nil {
		return nil, fmt.Errorf("bad offset zone %q", id)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return nil, fmt.Errorf("bad offset zone %q", id)
	}

	seconds := hours*3600 + minutes*60
	if id[0] == '-' {
		seconds = -seconds
	}

	return time.FixedZone(id, seconds), nil
}

// IsFixedOffset reports whether loc is a fixed offset rather than a region
// zone. Offset attachment for decoded values uses the offset directly in
// that case instead of resolving zone rules at the local instant.
func IsFixedOffset(loc *time.Location) bool {
	if loc == time.UTC {
		return true
	}
	name := loc.String()
	return len(name) > 0 && (name[0] == '+' || name[0] == '-')
}
