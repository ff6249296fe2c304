package main

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/race/horizon/internal/catalog"
	"github.com/race/horizon/internal/garage"
)

const recentResults = 10

// garageRequest is the body of the garage purchase endpoints.
type garageRequest struct {
	Name    string              `json:"name"`
	Car     int                 `json:"car"`
	Upgrade catalog.UpgradeKind `json:"upgrade,omitempty"`
}

// carOffer is a catalog car the profile could buy now.
type carOffer struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// routes wires the HTTP endpoints.
func (s *RaceServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/tracks", s.handleTracks)
	mux.HandleFunc("/garage", s.handleGarage)
	mux.HandleFunc("/garage/car", s.handleBuyCar)
	mux.HandleFunc("/garage/upgrade", s.handleBuyUpgrade)
	mux.HandleFunc("/garage/select", s.handleSelectCar)
	return mux
}

func (s *RaceServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *RaceServer) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.lobby.Stats())
}

// handleTracks lists the catalog, optionally narrowed by ?difficulty=.
func (s *RaceServer) handleTracks(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	tracks := catalog.Tracks
	if d := r.URL.Query().Get("difficulty"); d != "" {
		tracks = catalog.TracksByDifficulty(d)
	}
	if tracks == nil {
		tracks = []catalog.Track{}
	}
	writeJSON(w, tracks)
}

// handleGarage returns an existing profile with its latest results and the
// cars it can afford but does not own yet.
func (s *RaceServer) handleGarage(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	name := sanitizeName(r.URL.Query().Get("name"))
	profile, err := s.garage.Lookup(name)
	if err != nil {
		s.garageError(w, name, err)
		return
	}
	results, err := s.garage.Results(name, recentResults)
	if err != nil {
		s.garageError(w, name, err)
		return
	}

	owned := make(map[int]bool, len(profile.Cars))
	for _, c := range profile.Cars {
		owned[c.CarIndex] = true
	}
	available := []carOffer{}
	for _, c := range catalog.AvailableCars(profile.Credits) {
		idx, ok := catalog.CarIndex(c.Name)
		if ok && !owned[idx] {
			available = append(available, carOffer{Index: idx, Name: c.Name, Price: c.Price})
		}
	}

	writeJSON(w, map[string]any{"profile": profile, "results": results, "available": available})
}

func (s *RaceServer) handleBuyCar(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGarage(w, r)
	if !ok {
		return
	}
	profile, err := s.garage.BuyCar(req.Name, req.Car)
	if err != nil {
		s.garageError(w, req.Name, err)
		return
	}
	writeJSON(w, profile)
}

func (s *RaceServer) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGarage(w, r)
	if !ok {
		return
	}
	car, err := s.garage.BuyUpgrade(req.Name, req.Car, req.Upgrade)
	if err != nil {
		s.garageError(w, req.Name, err)
		return
	}
	writeJSON(w, car)
}

func (s *RaceServer) handleSelectCar(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGarage(w, r)
	if !ok {
		return
	}
	if err := s.garage.SelectCar(req.Name, req.Car); err != nil {
		s.garageError(w, req.Name, err)
		return
	}
	profile, err := s.garage.Lookup(req.Name)
	if err != nil {
		s.garageError(w, req.Name, err)
		return
	}
	writeJSON(w, profile)
}

func (s *RaceServer) decodeGarage(w http.ResponseWriter, r *http.Request) (garageRequest, bool) {
	var req garageRequest
	if !allow(w, r, http.MethodPost) {
		return req, false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	req.Name = sanitizeName(req.Name)
	return req, true
}

// garageError maps store failures onto HTTP statuses.
func (s *RaceServer) garageError(w http.ResponseWriter, name string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, garage.ErrUnknownProfile):
		status = http.StatusNotFound
	case errors.Is(err, garage.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
	case errors.Is(err, garage.ErrCarNotOwned):
		status = http.StatusForbidden
	case errors.Is(err, garage.ErrCarOwned), errors.Is(err, garage.ErrMaxLevel):
		status = http.StatusConflict
	case errors.Is(err, garage.ErrUnknownCar), errors.Is(err, garage.ErrUnknownUpgrade):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("profile", name).Msg("garage request failed")
		http.Error(w, "garage unavailable", status)
		return
	}
	s.log.Debug().Err(err).Str("profile", name).Int("status", status).Msg("garage request rejected")
	http.Error(w, err.Error(), status)
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
