package ops

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/url"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/hpungsan/pocket/internal/errors"
	"github.com/hpungsan/pocket/internal/recording"
)

// DetailInput addresses a single recording.
type DetailInput struct {
	ID    string // required
	Token string // optional; falls back to the token store
}

// RecordingDetail is a recording bundled with its transcript and summary.
type RecordingDetail struct {
	Recording   *recording.Recording `json:"recording"`
	Transcript  string               `json:"transcript"`
	Summary     string               `json:"summary"`
	ActionItems []json.RawMessage    `json:"action_items"`
	Speakers    json.RawMessage      `json:"speakers"`
}

// GetFull fetches a recording with its transcript, summary, action items and
// speakers. Missing nested sections become empty values.
func GetFull(ctx context.Context, deps Deps, input DetailInput) (*RecordingDetail, error) {
	doc, err := fetchDetail(ctx, deps, input)
	if err != nil {
		return nil, err
	}

	rec, err := doc.recording()
	if err != nil {
		return nil, err
	}

	out := &RecordingDetail{
		Recording:   rec,
		ActionItems: []json.RawMessage{},
		Speakers:    doc.speakers(),
	}

	if text, ok := doc.transcript(); ok && text != nil {
		out.Transcript = *text
	}

	if entry, ok := doc.firstSummarization(); ok {
		out.Summary = entry.markdown()
		out.ActionItems = entry.actionItems()
	}

	return out, nil
}

// GetTranscript returns the transcript text, or nil when the recording has no
// transcription (or the transcription carries no text).
func GetTranscript(ctx context.Context, deps Deps, input DetailInput) (*string, error) {
	doc, err := fetchDetail(ctx, deps, input)
	if err != nil {
		return nil, err
	}
	text, ok := doc.transcript()
	if !ok {
		return nil, nil
	}
	return text, nil
}

// GetSummary returns the first summarization of a recording, or nil when
// there is none.
func GetSummary(ctx context.Context, deps Deps, input DetailInput) (*recording.Summary, error) {
	doc, err := fetchDetail(ctx, deps, input)
	if err != nil {
		return nil, err
	}

	entry, ok := doc.firstSummarization()
	if !ok {
		return nil, nil
	}

	return &recording.Summary{
		ID:          entry.id(),
		RecordingID: strings.TrimSpace(input.ID),
		Summary:     entry.markdown(),
		ActionItems: entry.actionItems(),
	}, nil
}

// fetchDetail validates the address and requests /recordings/{id}?include=all.
func fetchDetail(ctx context.Context, deps Deps, input DetailInput) (detailDoc, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("recording id is required")
	}

	tok, err := deps.resolveToken(input.Token)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("include", "all")

	body, err := deps.Client.Get(ctx, recordingsEndpoint+"/"+url.PathEscape(id), tok, params)
	if err != nil {
		return nil, err
	}
	return detailDoc(body), nil
}

// detailDoc is the raw detail response. Accessors tolerate any missing or
// mistyped section by returning an empty value.
type detailDoc []byte

func (d detailDoc) recording() (*recording.Recording, error) {
	value, typ, _, err := jsonparser.Get(d, "recording")
	if err != nil || typ != jsonparser.Object {
		return nil, errors.NewInvalidResponse("recording is missing id")
	}
	return recording.FromJSON(value)
}

// transcript reports ok=false when there is no non-empty transcription object.
// With ok=true, the text may still be nil if the object has no text.
func (d detailDoc) transcript() (*string, bool) {
	value, typ, _, err := jsonparser.Get(d, "transcription")
	if err != nil || !nonEmptyObject(value, typ) {
		return nil, false
	}
	text, err := jsonparser.GetString(value, "transcription", "text")
	if err != nil {
		return nil, true
	}
	return &text, true
}

func (d detailDoc) speakers() json.RawMessage {
	value, typ, _, err := jsonparser.Get(d, "speakers")
	if err != nil || typ != jsonparser.Array {
		return json.RawMessage("[]")
	}
	return copyRaw(value)
}

var errStop = stderrors.New("stop")

// firstSummarization returns the first entry of the summarizations map in
// document order. An empty first key counts as no summarization.
func (d detailDoc) firstSummarization() (summarizationEntry, bool) {
	var (
		entry summarizationEntry
		found bool
	)
	err := jsonparser.ObjectEach(d, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		if len(key) > 0 {
			found = true
			if typ == jsonparser.Object {
				entry = summarizationEntry(copyRaw(value))
			} else {
				entry = summarizationEntry("{}")
			}
		}
		return errStop
	}, "summarizations")
	if err != nil && !stderrors.Is(err, errStop) {
		return nil, false
	}
	return entry, found
}

// summarizationEntry is one value of the summarizations map.
type summarizationEntry []byte

func (e summarizationEntry) id() string {
	value, typ, _, err := jsonparser.Get(e, "id")
	if err != nil {
		return ""
	}
	switch typ {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return ""
		}
		return s
	case jsonparser.Number:
		return string(value)
	default:
		return ""
	}
}

func (e summarizationEntry) markdown() string {
	md, err := jsonparser.GetString(e, "v2", "summary", "markdown")
	if err != nil {
		return ""
	}
	return md
}

func (e summarizationEntry) actionItems() []json.RawMessage {
	value, typ, _, err := jsonparser.Get(e, "v2", "actionItems", "items")
	if err != nil || typ != jsonparser.Array {
		return []json.RawMessage{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil || items == nil {
		return []json.RawMessage{}
	}
	return items
}

func nonEmptyObject(value []byte, typ jsonparser.ValueType) bool {
	if typ != jsonparser.Object {
		return false
	}
	empty := true
	_ = jsonparser.ObjectEach(value, func(_, _ []byte, _ jsonparser.ValueType, _ int) error {
		empty = false
		return errStop
	})
	return !empty
}

// copyRaw detaches a jsonparser slice from the response buffer.
func copyRaw(b []byte) json.RawMessage {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
