// Package pokeapitest provides an in-process fake of the pokedex backend for
// tests. It speaks the same wire format as the real service, including the
// string-encoded numbers of the search response.
package pokeapitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rshade/pokedex/internal/engine"
)

// Endpoint names used for failure injection and call counting.
const (
	EndpointHome      = "home"
	EndpointSearch    = "search"
	EndpointMoves     = "moves"
	EndpointStats     = "stats"
	EndpointAbilities = "abilities"
)

// DefaultToken is the anti-forgery token embedded in the fake home page.
const DefaultToken = "fake-csrf-token"

// Server is a fake backend. Configure it before issuing requests; the
// failure and call-count helpers are safe to use concurrently.
type Server struct {
	*httptest.Server

	// RequireToken makes the search endpoint reject requests whose
	// X-CSRFToken header does not match Token with a 403.
	RequireToken bool
	Token        string

	mu       sync.Mutex
	dex      map[string]engine.AggregatedRecord
	failures map[string]int
	calls    map[string]int
	lastReq  map[string]RecordedRequest
}

// RecordedRequest is a copy of the parts of a request tests assert on.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Form   url.Values
}

// NewServer starts a fake backend holding records. Records are looked up
// by decimal id and by lower-cased name. Call Close when done.
func NewServer(records ...engine.AggregatedRecord) *Server {
	s := &Server{
		Token:    DefaultToken,
		dex:      make(map[string]engine.AggregatedRecord),
		failures: make(map[string]int),
		calls:    make(map[string]int),
		lastReq:  make(map[string]RecordedRequest),
	}
	for _, r := range records {
		s.Add(r)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Add registers a record.
func (s *Server) Add(r engine.AggregatedRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dex[strconv.Itoa(r.ID)] = r
	s.dex[strings.ToLower(r.Name)] = r
}

// Fail makes endpoint answer with status until cleared with status 0.
func (s *Server) Fail(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, endpoint)
		return
	}
	s.failures[endpoint] = status
}

// Calls returns how many requests endpoint has received.
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// LastRequest returns the most recent request to endpoint.
func (s *Server) LastRequest(endpoint string) (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.lastReq[endpoint]
	return r, ok
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	endpoint, key := route(r.URL.Path)
	if endpoint == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such endpoint"})
		return
	}

	_ = r.ParseForm()
	s.mu.Lock()
	s.calls[endpoint]++
	s.lastReq[endpoint] = RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Form:   cloneValues(r.PostForm),
	}
	failStatus := s.failures[endpoint]
	s.mu.Unlock()

	if failStatus != 0 {
		writeJSON(w, failStatus, map[string]string{"message": http.StatusText(failStatus)})
		return
	}

	switch endpoint {
	case EndpointHome:
		s.serveHome(w)
	case EndpointSearch:
		s.serveSearch(w, r)
	default:
		s.serveSecondary(w, r, endpoint, key)
	}
}

func route(path string) (endpoint, key string) {
	if path == "/" {
		return EndpointHome, ""
	}
	if path == "/api/pokemon/search/" {
		return EndpointSearch, ""
	}
	rest, ok := strings.CutPrefix(path, "/api/pokemon/")
	if !ok {
		return "", ""
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	if len(parts) != 2 {
		return "", ""
	}
	switch parts[1] {
	case EndpointMoves, EndpointStats, EndpointAbilities:
		return parts[1], parts[0]
	default:
		return "", ""
	}
}

func (s *Server) serveHome(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: s.Token, Path: "/"})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!doctype html><html><body>
<form id="pokemon-form" method="post">
<input type="hidden" name="csrfmiddlewaretoken" value="%s">
<input id="pokemon-input" name="pokemon">
</form></body></html>`, s.Token)
}

func (s *Server) serveSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.RequireToken && r.Header.Get("X-CSRFToken") != s.Token {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "CSRF verification failed"})
		return
	}
	query := strings.ToLower(strings.TrimSpace(r.PostFormValue("pokemon")))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Please provide a Pokémon name"})
		return
	}

	rec, ok := s.lookup(query)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Pokémon not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":   rec.Name,
		"number": strconv.Itoa(rec.ID),
		"type":   rec.PrimaryType,
		"height": strconv.Itoa(rec.HeightDecimetres),
		"weight": strconv.Itoa(rec.WeightDecigrams),
		"sprite": rec.SpriteURL,
	})
}

func (s *Server) serveSecondary(w http.ResponseWriter, r *http.Request, endpoint, key string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	rec, ok := s.lookup(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Pokémon not found"})
		return
	}

	switch endpoint {
	case EndpointMoves:
		type move struct {
			Name     string `json:"name"`
			Level    int    `json:"level"`
			Type     string `json:"type"`
			Power    *int   `json:"power"`
			Accuracy *int   `json:"accuracy"`
			PP       int    `json:"pp"`
		}
		moves := make([]move, 0, len(rec.Moves))
		for _, m := range rec.Moves {
			moves = append(moves, move{m.Name, m.Level, m.MoveType, m.Power, m.Accuracy, m.PowerPoints})
		}
		writeJSON(w, http.StatusOK, map[string]any{"moves": moves})
	case EndpointStats:
		type stat struct {
			Name     string `json:"name"`
			BaseStat int    `json:"base_stat"`
		}
		stats := make([]stat, 0, len(rec.Stats))
		for _, st := range rec.Stats {
			stats = append(stats, stat{st.Name, st.BaseValue})
		}
		writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
	case EndpointAbilities:
		writeJSON(w, http.StatusOK, map[string]any{"abilities": rec.Abilities})
	}
}

func (s *Server) lookup(key string) (engine.AggregatedRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.dex[strings.ToLower(key)]
	return rec, ok
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Pikachu returns a fully populated record for id 25.
func Pikachu() engine.AggregatedRecord {
	power, accuracy := 40, 100
	return engine.AggregatedRecord{
		PrimaryRecord: engine.PrimaryRecord{
			ID:               25,
			Name:             "Pikachu",
			PrimaryType:      "electric",
			HeightDecimetres: 4,
			WeightDecigrams:  60,
			SpriteURL:        "https://sprites.example.com/25.png",
		},
		Moves: []engine.MoveEntry{
			{Name: "thunder-shock", Level: 1, MoveType: "electric", PowerPoints: 30, Power: &power, Accuracy: &accuracy},
			{Name: "growl", Level: 5, MoveType: "normal", PowerPoints: 40, Accuracy: &accuracy},
		},
		Stats: []engine.StatEntry{
			{Name: "hp", BaseValue: 35},
			{Name: "attack", BaseValue: 55},
			{Name: "special-attack", BaseValue: 50},
			{Name: "speed", BaseValue: 90},
		},
		Abilities: []engine.AbilityEntry{
			{Name: "static"},
			{Name: "lightning-rod", IsHidden: true},
		},
	}
}

// Bulbasaur returns a fully populated record for id 1.
func Bulbasaur() engine.AggregatedRecord {
	power, accuracy := 40, 100
	return engine.AggregatedRecord{
		PrimaryRecord: engine.PrimaryRecord{
			ID:               1,
			Name:             "Bulbasaur",
			PrimaryType:      "grass",
			HeightDecimetres: 7,
			WeightDecigrams:  69,
			SpriteURL:        "https://sprites.example.com/1.png",
		},
		Moves: []engine.MoveEntry{
			{Name: "tackle", Level: 1, MoveType: "normal", PowerPoints: 35, Power: &power, Accuracy: &accuracy},
		},
		Stats:     []engine.StatEntry{{Name: "hp", BaseValue: 45}},
		Abilities: []engine.AbilityEntry{{Name: "overgrow"}, {Name: "chlorophyll", IsHidden: true}},
	}
}
