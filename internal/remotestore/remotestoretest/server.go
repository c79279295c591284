// Package remotestoretest provides an in-memory fake of the Firebase
// Realtime Database REST surface used by remotestore.Client.
package remotestoretest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Server is a fake RTDB holding a single collection.
type Server struct {
	*httptest.Server

	Collection string
	Token      string

	mu       sync.Mutex
	data     map[string]map[string]any
	requests []string
	failWith int
}

// NewServer starts a fake for collection accepting the given auth token.
func NewServer(collection, token string) *Server {
	s := &Server{
		Collection: collection,
		Token:      token,
		data:       map[string]map[string]any{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Put seeds a record body under key.
func (s *Server) Put(key string, body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]any, len(body))
	for k, v := range body {
		cp[k] = v
	}
	s.data[key] = cp
}

// Get returns a copy of the body stored under key.
func (s *Server) Get(key string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[key]
	if !ok {
		return nil, false
	}
	cp := make(map[string]any, len(b))
	for k, v := range b {
		cp[k] = v
	}
	return cp, true
}

// Keys lists the stored record keys.
func (s *Server) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// Requests returns "METHOD path" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// FailWith makes every following request answer with status (0 disables).
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, r.Method+" "+r.URL.Path)

	if s.failWith != 0 {
		writeJSON(w, s.failWith, map[string]string{"error": "injected failure"})
		return
	}
	if r.URL.Query().Get("auth") != s.Token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Permission denied"})
		return
	}

	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".json")
	if path != s.Collection && !strings.HasPrefix(path, s.Collection+"/") {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	key := strings.TrimPrefix(strings.TrimPrefix(path, s.Collection), "/")

	switch r.Method {
	case http.MethodGet:
		s.get(w, r, key)
	case http.MethodPatch:
		s.patch(w, r, key)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, key string) {
	if key == "" {
		if len(s.data) == 0 {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, s.data)
		return
	}
	body, ok := s.data[key]
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if r.URL.Query().Get("shallow") == "true" {
		writeJSON(w, http.StatusOK, true)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request, key string) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid data; couldn't parse JSON object."})
		return
	}

	if key != "" {
		body, ok := s.data[key]
		if !ok {
			body = map[string]any{}
			s.data[key] = body
		}
		for k, v := range payload {
			body[k] = v
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}

	for k, v := range payload {
		if v == nil {
			delete(s.data, k)
			continue
		}
		if m, ok := v.(map[string]any); ok {
			s.data[k] = m
		}
	}
	writeJSON(w, http.StatusOK, payload)
}
