// Package replaylog defines the recorded keystroke edit log and its validation.
package replaylog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/yetype/yetype/internal/editdiff"
)

// MaxTestSeconds bounds the elapsed time of any record.
const MaxTestSeconds = 3600

// MaxElapsedMs is MaxTestSeconds in milliseconds.
const MaxElapsedMs = MaxTestSeconds * 1000

// ErrInvalidLog reports a log that fails structural validation.
var ErrInvalidLog = errors.New("invalid replay log")

// Record replaces the rune range [Start, End) of the accumulated text with
// Insert, Elapsed milliseconds after the test started.
type Record struct {
	Start   int
	End     int
	Elapsed int64
	Insert  string
}

// Log is an ordered sequence of records.
type Log []Record

// FromEdit builds a record from a diff shifted by offset runes.
func FromEdit(e editdiff.Edit, offset int, elapsed int64) Record {
	return Record{
		Start:   e.Start + offset,
		End:     e.End + offset,
		Elapsed: elapsed,
		Insert:  e.Insert,
	}
}

// Apply applies the record to text.
func (r Record) Apply(text string) string {
	return editdiff.Apply(text, editdiff.Edit{Start: r.Start, End: r.End, Insert: r.Insert})
}

// MarshalJSON encodes the record as [start, end, ms] or [start, end, ms, "text"].
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Insert == "" {
		return json.Marshal([3]int64{int64(r.Start), int64(r.End), r.Elapsed})
	}
	return json.Marshal([]any{r.Start, r.End, r.Elapsed, r.Insert})
}

// UnmarshalJSON decodes the tuple form and checks field types. Range checks
// that depend on earlier records live in Log.Check.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("record is not an array: %w", err)
	}
	if len(fields) != 3 && len(fields) != 4 {
		return fmt.Errorf("record has %d fields", len(fields))
	}
	var vals [3]int64
	for i := 0; i < 3; i++ {
		v, err := decodeInt(fields[i])
		if err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = v
	}
	var insert string
	if len(fields) == 4 {
		raw := bytes.TrimSpace(fields[3])
		if len(raw) == 0 || raw[0] != '"' {
			return fmt.Errorf("insert text is not a string")
		}
		if err := json.Unmarshal(raw, &insert); err != nil {
			return fmt.Errorf("insert text: %w", err)
		}
		if insert == "" {
			return fmt.Errorf("insert text is empty")
		}
	}
	if vals[0] > math.MaxInt32 || vals[1] > math.MaxInt32 || vals[0] < math.MinInt32 || vals[1] < math.MinInt32 {
		return fmt.Errorf("index out of range")
	}
	*r = Record{Start: int(vals[0]), End: int(vals[1]), Elapsed: vals[2], Insert: insert}
	return nil
}

func decodeInt(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return 0, fmt.Errorf("not a number")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || math.Trunc(f) != f || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("not an integer")
	}
	return int64(f), nil
}

// Parse decodes a log and validates it. Any violation rejects the whole log.
func Parse(data []byte) (Log, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLog, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: not an array", ErrInvalidLog)
	}
	log := make(Log, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &log[i]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidLog, i, err)
		}
	}
	if err := log.Check(); err != nil {
		return nil, err
	}
	return log, nil
}

// IsValid reports whether data is a valid persisted log.
func IsValid(data []byte) bool {
	_, err := Parse(data)
	return err == nil
}

// Check validates index bounds against the running text length, elapsed
// bounds and ordering. An empty log is invalid.
func (l Log) Check() error {
	if len(l) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidLog)
	}
	length := 0
	var last int64
	for i, r := range l {
		switch {
		case r.Elapsed < 0 || r.Elapsed > MaxElapsedMs:
			return fmt.Errorf("%w: record %d: elapsed %dms out of range", ErrInvalidLog, i, r.Elapsed)
		case r.Elapsed < last:
			return fmt.Errorf("%w: record %d: elapsed %dms before %dms", ErrInvalidLog, i, r.Elapsed, last)
		case r.Start < 0 || r.End < 0:
			return fmt.Errorf("%w: record %d: negative index", ErrInvalidLog, i)
		case r.Start > r.End:
			return fmt.Errorf("%w: record %d: start %d after end %d", ErrInvalidLog, i, r.Start, r.End)
		case r.End > length:
			return fmt.Errorf("%w: record %d: end %d beyond length %d", ErrInvalidLog, i, r.End, length)
		}
		last = r.Elapsed
		length += utf8.RuneCountInString(r.Insert) - (r.End - r.Start)
	}
	return nil
}

// Replay applies every record in order to an empty text.
func (l Log) Replay() string {
	text := ""
	for _, r := range l {
		text = r.Apply(text)
	}
	return text
}

// Clone returns an independent copy of the log.
func (l Log) Clone() Log {
	if l == nil {
		return nil
	}
	out := make(Log, len(l))
	copy(out, l)
	return out
}

// Duration returns the elapsed time of the last record in milliseconds.
func (l Log) Duration() int64 {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].Elapsed
}
