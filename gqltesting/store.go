package gqltesting

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is a raw store record.
type Record = map[string]interface{}

// Store is an in-memory REST store with json-server semantics: collections at
// /{kind}, records at /{kind}/{id}, and child collections at
// /{parent}/{id}/{child} filtered on the child's "<singular parent>Id" field.
// Records created with POST get numeric ids. Every request is recorded.
type Store struct {
	mu    sync.Mutex
	data  map[string][]Record
	calls []string
	// Fail, when set, answers every request for which it returns a non-zero
	// status with that status.
	Fail func(method, path string) int
}

// NewStore returns a store seeded with a copy of fixtures.
func NewStore(fixtures map[string][]Record) *Store {
	s := &Store{data: make(map[string][]Record)}
	for kind, records := range fixtures {
		for _, r := range records {
			s.data[kind] = append(s.data[kind], copyRecord(r))
		}
	}
	return s
}

// Serve starts an httptest server for s that is closed with the test.
func (s *Store) Serve(t testing.TB) *httptest.Server {
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

// Calls returns the requests received so far, as "METHOD /path".
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// ResetCalls forgets the recorded requests.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Get returns a copy of kind/id, or nil.
func (s *Store) Get(kind, id string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(kind, id); i >= 0 {
		return copyRecord(s.data[kind][i])
	}
	return nil
}

func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, r.Method+" "+r.URL.Path)
	if s.Fail != nil {
		if status := s.Fail(r.Method, r.URL.Path); status != 0 {
			writeJSON(w, status, Record{})
			return
		}
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		records := s.data[parts[0]]
		if records == nil {
			records = []Record{}
		}
		writeJSON(w, http.StatusOK, records)
	case len(parts) == 1 && r.Method == http.MethodPost:
		s.create(w, r, parts[0])
	case len(parts) == 2:
		s.record(w, r, parts[0], parts[1])
	case len(parts) == 3 && r.Method == http.MethodGet:
		s.children(w, parts[0], parts[1], parts[2])
	default:
		writeJSON(w, http.StatusNotFound, Record{})
	}
}

func (s *Store) create(w http.ResponseWriter, r *http.Request, kind string) {
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, ok := rec["id"]; !ok {
		rec["id"] = s.nextID(kind)
	}
	s.data[kind] = append(s.data[kind], rec)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Store) record(w http.ResponseWriter, r *http.Request, kind, id string) {
	i := s.index(kind, id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, Record{})
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.data[kind][i])
	case http.MethodPatch:
		var patch Record
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for k, v := range patch {
			s.data[kind][i][k] = v
		}
		writeJSON(w, http.StatusOK, s.data[kind][i])
	case http.MethodDelete:
		s.data[kind] = append(s.data[kind][:i], s.data[kind][i+1:]...)
		writeJSON(w, http.StatusOK, Record{})
	default:
		writeJSON(w, http.StatusNotFound, Record{})
	}
}

func (s *Store) children(w http.ResponseWriter, parent, id, child string) {
	if s.index(parent, id) < 0 {
		writeJSON(w, http.StatusNotFound, Record{})
		return
	}
	singular := strings.TrimSuffix(parent, "s")
	if strings.HasSuffix(parent, "ies") {
		singular = strings.TrimSuffix(parent, "ies") + "y"
	}
	key := singular + "Id"
	out := []Record{}
	for _, rec := range s.data[child] {
		if v, ok := rec[key]; ok && v != nil && fmt.Sprint(v) == id {
			out = append(out, rec)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Store) index(kind, id string) int {
	for i, rec := range s.data[kind] {
		if fmt.Sprint(rec["id"]) == id {
			return i
		}
	}
	return -1
}

func (s *Store) nextID(kind string) int {
	max := 0
	for _, rec := range s.data[kind] {
		if n, err := strconv.Atoi(fmt.Sprint(rec["id"])); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func copyRecord(r Record) Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}
