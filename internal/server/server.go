// Package server serves the save and past-tests endpoints over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/yetype/yetype/internal/api"
	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/store"
)

const maxBodyBytes = 1 << 20

// TestStore persists and lists finished tests.
type TestStore interface {
	InsertTest(ctx context.Context, r model.Result) (model.Result, error)
	ListTests(ctx context.Context, q model.PastTestsQuery) (model.PastTestsPage, error)
}

// QuoteLookup resolves quote ids.
type QuoteLookup interface {
	Get(id uuid.UUID) (model.Quote, bool)
}

// Server handles API requests. An empty Token disables authentication.
type Server struct {
	Store  TestStore
	Quotes QuoteLookup
	Token  string
	Logger *log.Logger
	Now    func() time.Time
}

// Router returns the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.HandleFunc(api.SaveTimedPath, s.saveHandler(model.ModeTimed)).Methods(http.MethodPost)
	r.HandleFunc(api.SaveWordsPath, s.saveHandler(model.ModeWordLimit)).Methods(http.MethodPost)
	r.HandleFunc(api.SaveQuotePath, s.saveHandler(model.ModeQuote)).Methods(http.MethodPost)
	r.HandleFunc(api.PastTestsPath, s.handlePastTests).Methods(http.MethodPost)
	return r
}

func (s *Server) saveHandler(mode model.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.SaveRequest
		if err := decodeBody(r, &req); err != nil {
			s.logf("%s: %v", r.URL.Path, err)
			writeJSON(w, api.Response{Type: api.Fail})
			return
		}
		result, err := req.Result(mode)
		if err == nil && mode == model.ModeQuote {
			if _, ok := s.Quotes.Get(result.QuoteID); !ok {
				err = errors.New("unknown quote id")
			}
		}
		if err != nil {
			s.logf("%s: %v", r.URL.Path, err)
			writeJSON(w, api.Response{Type: api.Fail})
			return
		}
		if !s.authorized(r) {
			writeJSON(w, api.Response{Type: api.NotAuthorized})
			return
		}
		result.CreatedAt = s.now()
		if _, err := s.Store.InsertTest(r.Context(), result); err != nil {
			s.logf("%s: insert: %v", r.URL.Path, err)
			writeJSON(w, api.Response{Type: api.Fail})
			return
		}
		writeJSON(w, api.Response{Type: api.Success})
	}
}

func (s *Server) handlePastTests(w http.ResponseWriter, r *http.Request) {
	var req api.PastTestsRequest
	if err := decodeBody(r, &req); err != nil {
		s.logf("%s: %v", r.URL.Path, err)
		writeJSON(w, api.PastTestsResponse{Type: api.Fail})
		return
	}
	q, err := req.Query(s.now())
	if err == nil {
		for _, f := range q.Filters {
			if f.QuoteID == uuid.Nil {
				continue
			}
			if _, ok := s.Quotes.Get(f.QuoteID); !ok {
				err = errors.New("unknown quote id in filter")
				break
			}
		}
	}
	if err != nil {
		s.logf("%s: %v", r.URL.Path, err)
		writeJSON(w, api.PastTestsResponse{Type: api.Fail})
		return
	}
	if !s.authorized(r) {
		writeJSON(w, api.PastTestsResponse{Type: api.NotAuthorized})
		return
	}
	page, err := s.Store.ListTests(r.Context(), q)
	if errors.Is(err, store.ErrTooManyFilters) {
		writeJSON(w, api.PastTestsResponse{Type: api.TooManyFilters})
		return
	}
	if err != nil {
		s.logf("%s: list: %v", r.URL.Path, err)
		writeJSON(w, api.PastTestsResponse{Type: api.Fail})
		return
	}
	resp := api.PastTestsResponse{Type: api.Success, Tests: []api.PastTest{}, HasMore: page.HasMore}
	for _, t := range page.Tests {
		resp.Tests = append(resp.Tests, api.NewPastTest(t))
	}
	writeJSON(w, resp)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.Token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(got), []byte(s.Token)) == 1
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// Responses are always 200; the outcome is carried in the body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort write; the client has gone away.
		_ = err
	}
}

// ListenAndServe serves the router on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
