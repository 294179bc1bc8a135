package ops

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/pocket/internal/errors"
	"github.com/hpungsan/pocket/internal/recording"
)

// SearchInput contains parameters for the Search operation.
// At least one of Query or the Lat+Lon pair is required.
type SearchInput struct {
	Token    string   // optional; falls back to the token store
	Query    string   // case-insensitive literal substring of title, description and tags
	Days     *int     // default: 90
	Limit    int      // default: 20
	Lat      *float64 // location filter, requires Lon
	Lon      *float64 // location filter, requires Lat
	RadiusKm *float64 // default: 1.0; 0 matches the exact point
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items     []*recording.Recording `json:"items"`
	Scanned   int                    `json:"scanned"`
	StartDate string                 `json:"start_date"`
}

// Search filters recent recordings client-side by text and/or location.
// It scans up to SearchFetchLimit recordings in the day window and stops once
// Limit matches are collected. Transcripts are not searched.
func Search(ctx context.Context, deps Deps, input SearchInput) (*SearchOutput, error) {
	query := strings.ToLower(input.Query)
	byLocation := input.Lat != nil && input.Lon != nil
	if query == "" && !byLocation {
		return nil, errors.NewInvalidRequest("provide query and/or lat+lon")
	}

	radius := DefaultRadiusKm
	if input.RadiusKm != nil {
		radius = *input.RadiusKm
	}
	if radius < 0 {
		return nil, errors.NewInvalidRequest("radius must be >= 0")
	}

	tok, err := deps.resolveToken(input.Token)
	if err != nil {
		return nil, err
	}

	days, err := resolveDays(input.Days, DefaultSearchDays)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	start, _ := startDate(deps.now(), days)

	params := url.Values{}
	params.Set("limit", strconv.Itoa(SearchFetchLimit))
	params.Set("start_date", start)
	params.Set("sort_by", "recording_at")
	params.Set("sort_order", "desc")

	all, err := fetchRecordings(ctx, deps, tok, params)
	if err != nil {
		return nil, err
	}

	matches := make([]*recording.Recording, 0, min(len(all), limit))
	for _, r := range all {
		if byLocation {
			if !r.HasLocation() {
				continue
			}
			if recording.HaversineKm(*input.Lat, *input.Lon, *r.Latitude, *r.Longitude) > radius {
				continue
			}
		}

		if query != "" && !strings.Contains(searchableText(r), query) {
			continue
		}

		matches = append(matches, r)
		if len(matches) >= limit {
			break
		}
	}

	return &SearchOutput{
		Items:     matches,
		Scanned:   len(all),
		StartDate: start,
	}, nil
}

// searchableText is the lowercased haystack a text query is matched against.
func searchableText(r *recording.Recording) string {
	return strings.ToLower(r.Title + " " + r.Description + " " + strings.Join(r.Tags, " "))
}
