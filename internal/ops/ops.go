package ops

import (
	"strings"
	"time"

	"github.com/hpungsan/pocket/internal/api"
	"github.com/hpungsan/pocket/internal/errors"
	"github.com/hpungsan/pocket/internal/token"
)

// Listing limits and windows
const (
	DefaultListDays    = 30
	DefaultListLimit   = 50
	DefaultSearchDays  = 90
	DefaultSearchLimit = 20
	DefaultRadiusKm    = 1.0

	// SearchFetchLimit is how many recent recordings a search scans.
	SearchFetchLimit = 100
)

// Endpoints
const (
	recordingsEndpoint = "/recordings"
)

// NoTokenHint tells the user how to obtain a credential.
const NoTokenHint = "Run: pocket set-token <TOKEN> (or: pocket extract)"

// Deps bundles the collaborators every query needs.
type Deps struct {
	Client *api.Client
	Tokens token.Store

	// Now is the clock used for date windows; nil means time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// resolveToken prefers an explicit token and falls back to the store.
func (d Deps) resolveToken(explicit string) (string, error) {
	if t := strings.TrimSpace(explicit); t != "" {
		return t, nil
	}
	if d.Tokens != nil {
		if t, ok := d.Tokens.Get(); ok {
			return t, nil
		}
	}
	return "", errors.NewNoToken(NoTokenHint)
}

// startDate returns the YYYY-MM-DD date `days` days before now, in local time,
// plus that date's midnight as a UTC wall-clock instant for comparing with
// parsed API timestamps.
func startDate(now time.Time, days int) (string, time.Time) {
	d := now.AddDate(0, 0, -days)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return d.Format("2006-01-02"), day
}

// resolveDays applies the default for a nil window and rejects negatives.
func resolveDays(days *int, def int) (int, error) {
	if days == nil {
		return def, nil
	}
	if *days < 0 {
		return 0, errors.NewInvalidRequest("days must be non-negative")
	}
	return *days, nil
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
