// Package api defines the JSON wire format shared by the save server and
// the sync client.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/replaylog"
)

// Endpoints.
const (
	SaveTimedPath = "/api/savesolorandomtimed"
	SaveWordsPath = "/api/savesolorandomwords"
	SaveQuotePath = "/api/savesoloquote"
	PastTestsPath = "/api/getpasttests"
)

// ResponseType is the outcome reported in every response body.
type ResponseType string

// Response types.
const (
	Success        ResponseType = "success"
	Fail           ResponseType = "fail"
	NotAuthorized  ResponseType = "notAuthorized"
	TooManyFilters ResponseType = "tooManyFilters"
)

// MinCursorTime rejects cursors older than the first stored test could be.
var MinCursorTime = time.UnixMilli(1695000000000)

// ErrInvalidRequest reports a request body that fails validation.
var ErrInvalidRequest = errors.New("invalid request")

// Response is the body of save responses.
type Response struct {
	Type ResponseType `json:"type"`
}

// SaveRequest is the body of the three save endpoints. Which optional
// fields are set depends on the endpoint.
type SaveRequest struct {
	Words                      string          `json:"words,omitempty"`
	QuoteID                    string          `json:"quoteId,omitempty"`
	TestTimeSeconds            *int            `json:"testTimeSeconds,omitempty"`
	TestWordLimit              *int            `json:"testWordLimit,omitempty"`
	SecondsTaken               *float64        `json:"secondsTaken,omitempty"`
	CharactersTypedCorrectly   int             `json:"charactersTypedCorrectly"`
	CharactersTypedIncorrectly int             `json:"charactersTypedIncorrectly"`
	WordsTypedCorrectly        int             `json:"wordsTypedCorrectly"`
	WordsTypedIncorrectly      int             `json:"wordsTypedIncorrectly"`
	ReplayData                 json.RawMessage `json:"replayData"`
}

// SavePath returns the endpoint for a mode.
func SavePath(mode model.Mode) (string, error) {
	switch mode {
	case model.ModeTimed:
		return SaveTimedPath, nil
	case model.ModeWordLimit:
		return SaveWordsPath, nil
	case model.ModeQuote:
		return SaveQuotePath, nil
	}
	return "", fmt.Errorf("unknown mode %q", mode)
}

// NewSaveRequest builds the request body for a finished test.
func NewSaveRequest(r model.Result) (SaveRequest, error) {
	replay, err := json.Marshal(r.Log)
	if err != nil {
		return SaveRequest{}, err
	}
	req := SaveRequest{
		CharactersTypedCorrectly:   r.Score.CorrectChars,
		CharactersTypedIncorrectly: r.Score.IncorrectChars,
		WordsTypedCorrectly:        r.Score.CorrectWords,
		WordsTypedIncorrectly:      r.Score.IncorrectWords,
		ReplayData:                 replay,
	}
	seconds := r.Score.SecondsTaken
	switch r.Mode {
	case model.ModeTimed:
		limit := r.TimeLimit
		req.Words = r.Words
		req.TestTimeSeconds = &limit
	case model.ModeWordLimit:
		limit := r.WordLimit
		req.Words = r.Words
		req.TestWordLimit = &limit
		req.SecondsTaken = &seconds
	case model.ModeQuote:
		req.QuoteID = r.QuoteID.String()
		req.SecondsTaken = &seconds
	default:
		return SaveRequest{}, fmt.Errorf("unknown mode %q", r.Mode)
	}
	return req, nil
}

// Result converts a request received on the endpoint for mode into a
// validated result.
func (req SaveRequest) Result(mode model.Mode) (model.Result, error) {
	log, err := replaylog.Parse(req.ReplayData)
	if err != nil {
		return model.Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	r := model.Result{
		Mode: mode,
		Score: model.Score{
			CorrectChars:   req.CharactersTypedCorrectly,
			IncorrectChars: req.CharactersTypedIncorrectly,
			CorrectWords:   req.WordsTypedCorrectly,
			IncorrectWords: req.WordsTypedIncorrectly,
		},
		Log: log,
	}
	switch mode {
	case model.ModeTimed:
		if req.TestTimeSeconds == nil {
			return model.Result{}, fmt.Errorf("%w: missing testTimeSeconds", ErrInvalidRequest)
		}
		r.Words = req.Words
		r.TimeLimit = *req.TestTimeSeconds
		r.Score.SecondsTaken = float64(r.TimeLimit)
	case model.ModeWordLimit:
		if req.TestWordLimit == nil || req.SecondsTaken == nil {
			return model.Result{}, fmt.Errorf("%w: missing testWordLimit or secondsTaken", ErrInvalidRequest)
		}
		r.Words = req.Words
		r.WordLimit = *req.TestWordLimit
		r.Score.SecondsTaken = *req.SecondsTaken
	case model.ModeQuote:
		if req.SecondsTaken == nil {
			return model.Result{}, fmt.Errorf("%w: missing secondsTaken", ErrInvalidRequest)
		}
		id, err := uuid.Parse(req.QuoteID)
		if err != nil {
			return model.Result{}, fmt.Errorf("%w: quoteId: %v", ErrInvalidRequest, err)
		}
		r.QuoteID = id
		r.Score.SecondsTaken = *req.SecondsTaken
	default:
		return model.Result{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, mode)
	}
	if err := r.Validate(); err != nil {
		return model.Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return r, nil
}

// Filter is one inclusive past-tests filter. A nil limit or quote id
// matches the whole mode.
type Filter struct {
	Type      model.Mode `json:"type"`
	TimeLimit *int       `json:"timeLimit,omitempty"`
	WordLimit *int       `json:"wordLimit,omitempty"`
	QuoteID   *string    `json:"quoteId,omitempty"`
}

// Cursor pages past tests; Time is in Unix milliseconds.
type Cursor struct {
	Direction model.CursorDirection `json:"direction"`
	Time      int64                 `json:"time"`
}

// PastTestsRequest is the body of the past-tests endpoint.
type PastTestsRequest struct {
	Cursor           *Cursor  `json:"cursor"`
	InclusiveFilters []Filter `json:"inclusiveFilters"`
}

// NewPastTestsRequest encodes a query.
func NewPastTestsRequest(q model.PastTestsQuery) PastTestsRequest {
	req := PastTestsRequest{InclusiveFilters: make([]Filter, 0, len(q.Filters))}
	if q.Cursor != nil {
		req.Cursor = &Cursor{Direction: q.Cursor.Direction, Time: q.Cursor.Time.UnixMilli()}
	}
	for _, f := range q.Filters {
		wf := Filter{Type: f.Mode}
		switch f.Mode {
		case model.ModeTimed:
			if f.Limit != 0 {
				limit := f.Limit
				wf.TimeLimit = &limit
			}
		case model.ModeWordLimit:
			if f.Limit != 0 {
				limit := f.Limit
				wf.WordLimit = &limit
			}
		case model.ModeQuote:
			if f.QuoteID != uuid.Nil {
				id := f.QuoteID.String()
				wf.QuoteID = &id
			}
		}
		req.InclusiveFilters = append(req.InclusiveFilters, wf)
	}
	return req
}

// Query validates the request against now and converts it.
func (req PastTestsRequest) Query(now time.Time) (model.PastTestsQuery, error) {
	var q model.PastTestsQuery
	if req.InclusiveFilters == nil {
		return q, fmt.Errorf("%w: missing inclusiveFilters", ErrInvalidRequest)
	}
	if req.Cursor != nil {
		c := req.Cursor
		t := time.UnixMilli(c.Time)
		if c.Direction != model.CursorBefore && c.Direction != model.CursorAfter {
			return q, fmt.Errorf("%w: cursor direction %q", ErrInvalidRequest, c.Direction)
		}
		if !t.After(MinCursorTime) || !t.Before(now) {
			return q, fmt.Errorf("%w: cursor time out of range", ErrInvalidRequest)
		}
		q.Cursor = &model.Cursor{Direction: c.Direction, Time: t}
	}
	for _, f := range req.InclusiveFilters {
		mf := model.PastTestFilter{Mode: f.Type}
		switch f.Type {
		case model.ModeTimed:
			if f.TimeLimit != nil {
				if *f.TimeLimit < 1 || *f.TimeLimit > replaylog.MaxTestSeconds {
					return q, fmt.Errorf("%w: timeLimit out of range", ErrInvalidRequest)
				}
				mf.Limit = *f.TimeLimit
			}
		case model.ModeWordLimit:
			if f.WordLimit != nil {
				if !model.IsValidWordLimit(*f.WordLimit) {
					return q, fmt.Errorf("%w: wordLimit out of range", ErrInvalidRequest)
				}
				mf.Limit = *f.WordLimit
			}
		case model.ModeQuote:
			if f.QuoteID != nil {
				id, err := uuid.Parse(*f.QuoteID)
				if err != nil {
					return q, fmt.Errorf("%w: quoteId: %v", ErrInvalidRequest, err)
				}
				mf.QuoteID = id
			}
		default:
			return q, fmt.Errorf("%w: unknown filter type %q", ErrInvalidRequest, f.Type)
		}
		q.Filters = append(q.Filters, mf)
	}
	return q, nil
}

// PastTest is one stored test in a past-tests response.
type PastTest struct {
	Type                       model.Mode    `json:"type"`
	ID                         string        `json:"id"`
	Words                      string        `json:"words,omitempty"`
	QuoteID                    string        `json:"quoteId,omitempty"`
	TestTimeSeconds            *int          `json:"testTimeSeconds,omitempty"`
	TestWordLimit              *int          `json:"testWordLimit,omitempty"`
	SecondsTaken               *float64      `json:"secondsTaken,omitempty"`
	CharactersTypedCorrectly   int           `json:"charactersTypedCorrectly"`
	CharactersTypedIncorrectly int           `json:"charactersTypedIncorrectly"`
	WordsTypedCorrectly        int           `json:"wordsTypedCorrectly"`
	WordsTypedIncorrectly      int           `json:"wordsTypedIncorrectly"`
	ReplayData                 replaylog.Log `json:"replayData"`
	CreatedAt                  int64         `json:"createdAt"`
}

// PastTestsResponse is the body of the past-tests endpoint.
type PastTestsResponse struct {
	Type    ResponseType `json:"type"`
	Tests   []PastTest   `json:"tests,omitempty"`
	HasMore bool         `json:"hasMore,omitempty"`
}

// NewPastTest encodes a stored result.
func NewPastTest(r model.Result) PastTest {
	pt := PastTest{
		Type:                       r.Mode,
		ID:                         r.ID.String(),
		CharactersTypedCorrectly:   r.Score.CorrectChars,
		CharactersTypedIncorrectly: r.Score.IncorrectChars,
		WordsTypedCorrectly:        r.Score.CorrectWords,
		WordsTypedIncorrectly:      r.Score.IncorrectWords,
		ReplayData:                 r.Log,
		CreatedAt:                  r.CreatedAt.UnixMilli(),
	}
	seconds := r.Score.SecondsTaken
	switch r.Mode {
	case model.ModeTimed:
		limit := r.TimeLimit
		pt.Words = r.Words
		pt.TestTimeSeconds = &limit
	case model.ModeWordLimit:
		limit := r.WordLimit
		pt.Words = r.Words
		pt.TestWordLimit = &limit
		pt.SecondsTaken = &seconds
	case model.ModeQuote:
		pt.QuoteID = r.QuoteID.String()
		pt.SecondsTaken = &seconds
	}
	return pt
}

// Result decodes a past test.
func (pt PastTest) Result() (model.Result, error) {
	id, err := uuid.Parse(pt.ID)
	if err != nil {
		return model.Result{}, fmt.Errorf("past test id: %w", err)
	}
	if err := pt.ReplayData.Check(); err != nil {
		return model.Result{}, err
	}
	r := model.Result{
		ID:   id,
		Mode: pt.Type,
		Score: model.Score{
			CorrectChars:   pt.CharactersTypedCorrectly,
			IncorrectChars: pt.CharactersTypedIncorrectly,
			CorrectWords:   pt.WordsTypedCorrectly,
			IncorrectWords: pt.WordsTypedIncorrectly,
		},
		Words:     pt.Words,
		Log:       pt.ReplayData,
		CreatedAt: time.UnixMilli(pt.CreatedAt),
	}
	if pt.TestTimeSeconds != nil {
		r.TimeLimit = *pt.TestTimeSeconds
		r.Score.SecondsTaken = float64(r.TimeLimit)
	}
	if pt.TestWordLimit != nil {
		r.WordLimit = *pt.TestWordLimit
	}
	if pt.SecondsTaken != nil {
		r.Score.SecondsTaken = *pt.SecondsTaken
	}
	if pt.QuoteID != "" {
		if r.QuoteID, err = uuid.Parse(pt.QuoteID); err != nil {
			return model.Result{}, fmt.Errorf("past test quote id: %w", err)
		}
	}
	return r, nil
}
