package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hpungsan/pocket/internal/recording"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Token string // optional; falls back to the token store
	Days  *int   // default: 30
	Limit int    // default: 50
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items     []*recording.Recording `json:"items"`
	StartDate string                 `json:"start_date"`
	Sort      string                 `json:"sort"`
}

// listResponse is the envelope of GET /recordings.
type listResponse struct {
	Data []json.RawMessage `json:"data"`
}

// List fetches recordings recorded within the last Days days, newest first,
// in the order the server returned them.
func List(ctx context.Context, deps Deps, input ListInput) (*ListOutput, error) {
	tok, err := deps.resolveToken(input.Token)
	if err != nil {
		return nil, err
	}

	days, err := resolveDays(input.Days, DefaultListDays)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	start, startDay := startDate(deps.now(), days)

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("include_empty", "false")
	params.Set("sort_by", "recording_at")
	params.Set("sort_order", "desc")
	params.Set("start_date", start)

	all, err := fetchRecordings(ctx, deps, tok, params)
	if err != nil {
		return nil, err
	}

	// The server may over-return, both past the limit and before start_date.
	items := make([]*recording.Recording, 0, min(len(all), limit))
	for _, r := range all {
		if r.RecordedAt != nil && r.RecordedAt.Before(startDay) {
			continue
		}
		items = append(items, r)
		if len(items) >= limit {
			break
		}
	}

	return &ListOutput{
		Items:     items,
		StartDate: start,
		Sort:      "recording_at_desc",
	}, nil
}

// fetchRecordings requests the listing endpoint and maps every element.
func fetchRecordings(ctx context.Context, deps Deps, tok string, params url.Values) ([]*recording.Recording, error) {
	var resp listResponse
	if err := deps.Client.GetJSON(ctx, recordingsEndpoint, tok, params, &resp); err != nil {
		return nil, err
	}

	recs := make([]*recording.Recording, 0, len(resp.Data))
	for i, raw := range resp.Data {
		r, err := recording.FromJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("data[%d]: %w", i, err)
		}
		recs = append(recs, r)
	}
	return recs, nil
}
