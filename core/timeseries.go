package core

import (
	"encoding/json"
	"sort"
	"strings"
)

// EntrySeparator joins the contents of multiple entries matched by a
// windowed lookup. Callers and tests may rely on it being a blank line.
const EntrySeparator = "\n\n"

// TimeSeriesIndex is a bidirectional mapping between timestamps (seconds
// relative to video start) and content strings. It backs both the transcript
// and the frame-description timelines of a processed video: the forward
// direction answers "what was said/shown around time t", the reverse
// direction answers "at which times did this exact content occur".
//
// The index is written by a single producer during ingestion and read-only
// afterwards; it carries no internal locking.
type TimeSeriesIndex struct {
	times   []float64 // sorted ascending, one entry per unique timestamp
	entries map[float64]string
	reverse map[string][]float64 // content -> sorted timestamps
}

// TimeSeriesEntry is one (time, content) pair in chronological order. It is
// also the wire representation: an index serializes as an ordered array of
// these pairs so float timestamps and entry order survive a round trip.
type TimeSeriesEntry struct {
	Time    float64 `json:"time"`
	Content string  `json:"content"`
}

func NewTimeSeriesIndex() *TimeSeriesIndex {
	return &TimeSeriesIndex{
		entries: make(map[float64]string),
		reverse: make(map[string][]float64),
	}
}

// NewTimeSeriesIndexFromMap builds an index from a plain time->content map.
func NewTimeSeriesIndexFromMap(timeToContent map[float64]string) *TimeSeriesIndex {
	idx := NewTimeSeriesIndex()
	for t, c := range timeToContent {
		idx.Insert(t, c)
	}
	return idx
}

// Insert adds the (t, content) pair and updates the reverse mapping.
// Negative times are clamped to 0. Inserting at an existing timestamp
// overwrites the previous content (last write wins) and drops that timestamp
// from the old content's reverse entry, so the two mappings stay consistent.
// Empty content is valid and represents "no caption/utterance produced".
func (idx *TimeSeriesIndex) Insert(t float64, content string) {
	if t < 0 {
		t = 0
	}
	if old, ok := idx.entries[t]; ok {
		idx.dropReverse(old, t)
	} else {
		i := sort.SearchFloat64s(idx.times, t)
		idx.times = append(idx.times, 0)
		copy(idx.times[i+1:], idx.times[i:])
		idx.times[i] = t
	}
	idx.entries[t] = content

	times := idx.reverse[content]
	i := sort.SearchFloat64s(times, t)
	times = append(times, 0)
	copy(times[i+1:], times[i:])
	times[i] = t
	idx.reverse[content] = times
}

func (idx *TimeSeriesIndex) dropReverse(content string, t float64) {
	times := idx.reverse[content]
	i := sort.SearchFloat64s(times, t)
	if i < len(times) && times[i] == t {
		times = append(times[:i], times[i+1:]...)
	}
	if len(times) == 0 {
		delete(idx.reverse, content)
	} else {
		idx.reverse[content] = times
	}
}

// At returns the contents of every entry whose timestamp lies in the closed
// interval [t-padding, t+padding], in ascending time order, joined with
// EntrySeparator. An empty window yields an empty string, not an error.
// The lookup is a binary search over the sorted timestamps plus a scan of
// the matches, so large indices stay cheap to query.
func (idx *TimeSeriesIndex) At(t, padding float64) string {
	lo := sort.SearchFloat64s(idx.times, t-padding)
	var parts []string
	for i := lo; i < len(idx.times) && idx.times[i] <= t+padding; i++ {
		parts = append(parts, idx.entries[idx.times[i]])
	}
	return strings.Join(parts, EntrySeparator)
}

// TimesFor returns every timestamp at which exactly content was inserted,
// ascending. The match is exact; callers normalize before lookup if needed.
func (idx *TimeSeriesIndex) TimesFor(content string) []float64 {
	times := idx.reverse[content]
	out := make([]float64, len(times))
	copy(out, times)
	return out
}

// Len reports the number of entries in the index.
func (idx *TimeSeriesIndex) Len() int {
	return len(idx.times)
}

// Entries returns all pairs in chronological order.
func (idx *TimeSeriesIndex) Entries() []TimeSeriesEntry {
	out := make([]TimeSeriesEntry, 0, len(idx.times))
	for _, t := range idx.times {
		out = append(out, TimeSeriesEntry{Time: t, Content: idx.entries[t]})
	}
	return out
}

func (idx *TimeSeriesIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(idx.Entries())
}

func (idx *TimeSeriesIndex) UnmarshalJSON(data []byte) error {
	var entries []TimeSeriesEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	fresh := NewTimeSeriesIndex()
	for _, e := range entries {
		fresh.Insert(e.Time, e.Content)
	}
	*idx = *fresh
	return nil
}
