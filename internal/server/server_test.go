package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/api"
	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/quotes"
	"github.com/yetype/yetype/internal/replaylog"
	"github.com/yetype/yetype/internal/store"
)

const testToken = "s3cret"

func newTestServer(t *testing.T) (*httptest.Server, *quotes.Catalog) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	catalog, err := quotes.Builtin()
	if err != nil {
		t.Fatalf("quotes: %v", err)
	}
	srv := &Server{
		Store:  st,
		Quotes: catalog,
		Token:  testToken,
		Now:    func() time.Time { return time.Now() },
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, catalog
}

func post(t *testing.T, ts *httptest.Server, path, token string, body any, out any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func validResult(mode model.Mode, quoteID uuid.UUID) model.Result {
	r := model.Result{
		Mode:      mode,
		TimeLimit: 60,
		WordLimit: 10,
		Score:     model.Score{CorrectChars: 20, IncorrectChars: 1, CorrectWords: 4, IncorrectWords: 1, SecondsTaken: 60},
		Log: replaylog.Log{
			{Start: 0, End: 0, Elapsed: 0, Insert: "he"},
			{Start: 1, End: 2, Elapsed: 300},
		},
	}
	if mode == model.ModeQuote {
		r.QuoteID = quoteID
	} else {
		r.Words = "hello world"
	}
	return r
}

func TestSaveEndpoints(t *testing.T) {
	ts, catalog := newTestServer(t)
	quoteID := catalog.All()[0].ID

	for _, mode := range model.Modes {
		req, err := api.NewSaveRequest(validResult(mode, quoteID))
		if err != nil {
			t.Fatalf("%s: request: %v", mode, err)
		}
		path, _ := api.SavePath(mode)
		var resp api.Response
		post(t, ts, path, testToken, req, &resp)
		if resp.Type != api.Success {
			t.Fatalf("%s: expected success, got %s", mode, resp.Type)
		}
	}

	var past api.PastTestsResponse
	post(t, ts, api.PastTestsPath, testToken, api.NewPastTestsRequest(model.PastTestsQuery{
		Filters: []model.PastTestFilter{{Mode: model.ModeTimed}, {Mode: model.ModeWordLimit}, {Mode: model.ModeQuote, QuoteID: quoteID}},
	}), &past)
	if past.Type != api.Success || len(past.Tests) != 3 || past.HasMore {
		t.Fatalf("unexpected past tests response %+v", past)
	}
	for _, pt := range past.Tests {
		r, err := pt.Result()
		if err != nil {
			t.Fatalf("decode past test: %v", err)
		}
		if r.Log.Replay() != "h" {
			t.Fatalf("unexpected replay %q", r.Log.Replay())
		}
	}
}

func TestSaveRejections(t *testing.T) {
	ts, catalog := newTestServer(t)
	quoteID := catalog.All()[0].ID

	tooMany := validResult(model.ModeWordLimit, uuid.Nil)
	tooMany.Score.CorrectChars = model.MaxCharacters + 1
	badLimit := validResult(model.ModeWordLimit, uuid.Nil)
	badLimit.WordLimit = 11
	tooFast := validResult(model.ModeQuote, quoteID)
	tooFast.Score.SecondsTaken = 0.5
	unknownQuote := validResult(model.ModeQuote, uuid.New())

	tests := []struct {
		name  string
		r     model.Result
		token string
		want  api.ResponseType
	}{
		{name: "characters over budget", r: tooMany, token: testToken, want: api.Fail},
		{name: "word limit", r: badLimit, token: testToken, want: api.Fail},
		{name: "seconds below one", r: tooFast, token: testToken, want: api.Fail},
		{name: "unknown quote", r: unknownQuote, token: testToken, want: api.Fail},
		{name: "missing token", r: validResult(model.ModeTimed, uuid.Nil), want: api.NotAuthorized},
		{name: "wrong token", r: validResult(model.ModeTimed, uuid.Nil), token: "nope", want: api.NotAuthorized},
		{name: "invalid beats unauthorized", r: tooMany, want: api.Fail},
	}
	for _, tt := range tests {
		req, err := api.NewSaveRequest(tt.r)
		if err != nil {
			t.Fatalf("%s: request: %v", tt.name, err)
		}
		path, _ := api.SavePath(tt.r.Mode)
		var resp api.Response
		post(t, ts, path, tt.token, req, &resp)
		if resp.Type != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, resp.Type)
		}
	}
}

func TestSaveRejectsCorruptReplay(t *testing.T) {
	ts, _ := newTestServer(t)
	body := map[string]any{
		"words":                      "a b",
		"testTimeSeconds":            15,
		"charactersTypedCorrectly":   1,
		"charactersTypedIncorrectly": 0,
		"wordsTypedCorrectly":        1,
		"wordsTypedIncorrectly":      0,
		"replayData":                 [][]any{{0, 0, 10, "a"}, {0, 0, 5, "b"}},
	}
	var resp api.Response
	post(t, ts, api.SaveTimedPath, testToken, body, &resp)
	if resp.Type != api.Fail {
		t.Fatalf("expected fail for decreasing timestamps, got %s", resp.Type)
	}
}

func TestPastTestsTooManyFilters(t *testing.T) {
	ts, catalog := newTestServer(t)
	all := catalog.All()
	q := model.PastTestsQuery{}
	for i := 0; i < 6; i++ {
		q.Filters = append(q.Filters, model.PastTestFilter{Mode: model.ModeQuote, QuoteID: all[i].ID})
	}
	var resp api.PastTestsResponse
	post(t, ts, api.PastTestsPath, testToken, api.NewPastTestsRequest(q), &resp)
	if resp.Type != api.TooManyFilters {
		t.Fatalf("expected tooManyFilters, got %s", resp.Type)
	}
}

func TestPastTestsRejectsBadCursor(t *testing.T) {
	ts, _ := newTestServer(t)
	req := api.PastTestsRequest{
		Cursor:           &api.Cursor{Direction: model.CursorBefore, Time: time.Now().Add(time.Hour).UnixMilli()},
		InclusiveFilters: []api.Filter{{Type: model.ModeTimed}},
	}
	var resp api.PastTestsResponse
	post(t, ts, api.PastTestsPath, testToken, req, &resp)
	if resp.Type != api.Fail {
		t.Fatalf("expected fail for future cursor, got %s", resp.Type)
	}
}
