package recording

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/hpungsan/pocket/internal/errors"
)

// DefaultTitle is used when the API omits a recording's title.
const DefaultTitle = "Untitled"

// Recording is one captured audio session. Values are built fresh from each
// API response and never mutated afterward.
type Recording struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// Duration is the length in whole seconds
	Duration int `json:"duration"`

	RecordedAt *time.Time `json:"recorded_at,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`

	HasTranscription    bool   `json:"has_transcription"`
	HasSummarization    bool   `json:"has_summarization"`
	TranscriptionStatus string `json:"transcription_status"`
	SummarizationStatus string `json:"summarization_status"`

	NumSpeakers int `json:"num_speakers"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Tags     []string `json:"tags"`
	FolderID *string  `json:"folder_id,omitempty"`
}

// Summary is the AI-generated summary of a recording.
type Summary struct {
	ID          string `json:"id"`
	RecordingID string `json:"recording_id"`

	// Markdown summary text
	Summary string `json:"summary"`

	// ActionItems are passed through exactly as the API returned them
	ActionItems []json.RawMessage `json:"action_items"`

	Transcript *string    `json:"transcript,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// FromJSON decodes a raw recording object and maps it with FromAPI.
func FromJSON(raw []byte) (*Recording, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.NewInvalidResponse(fmt.Sprintf("recording is not a JSON object: %v", err))
	}
	return FromAPI(data)
}

// FromAPI maps a decoded API recording object into a Recording.
// id is the only required field; everything else falls back to a default.
func FromAPI(data map[string]any) (*Recording, error) {
	rawID, ok := data["id"]
	if !ok || rawID == nil {
		return nil, errors.NewInvalidResponse("recording is missing id")
	}

	r := &Recording{
		ID:                  cast.ToString(rawID),
		Title:               stringOr(data, "title", DefaultTitle),
		Description:         stringOr(data, "description", ""),
		Duration:            cast.ToInt(data["duration"]),
		RecordedAt:          ParseTime(cast.ToString(data["recordingAt"])),
		CreatedAt:           ParseTime(cast.ToString(data["createdAt"])),
		HasTranscription:    cast.ToBool(data["hasTranscription"]),
		HasSummarization:    cast.ToBool(data["hasSummarization"]),
		TranscriptionStatus: stringOr(data, "transcriptionStatus", "unknown"),
		SummarizationStatus: stringOr(data, "summarizationStatus", "unknown"),
		NumSpeakers:         max(cast.ToInt(data["numOfSpeakers"]), 0),
		Latitude:            optionalFloat(data["latitude"]),
		Longitude:           optionalFloat(data["longitude"]),
		Tags:                tagNames(data["tags"]),
	}

	if folder, ok := data["folderId"]; ok && folder != nil {
		s := cast.ToString(folder)
		r.FolderID = &s
	}

	return r, nil
}

// DurationString renders Duration as "45s", "2m" or "1h 2m".
// Minutes drop leftover seconds; hours show the remainder minutes.
func (r *Recording) DurationString() string {
	return FormatDuration(r.Duration)
}

// FormatDuration renders a number of seconds the way listings show it.
func FormatDuration(seconds int) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}

// HasLocation reports whether both coordinates are present.
func (r *Recording) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// stringOr returns data[key] as a string, or def when the key is absent or null.
func stringOr(data map[string]any, key, def string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return def
	}
	return cast.ToString(v)
}

func optionalFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}

// tagNames projects the name out of each tag object; a tag that is not an
// object or has no name contributes an empty string.
func tagNames(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			names = append(names, "")
			continue
		}
		names = append(names, stringOr(obj, "name", ""))
	}
	return names
}
