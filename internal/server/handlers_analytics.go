package server

import (
	"encoding/json"
	"net/http"

	"github.com/meltforce/freelift/internal/analytics"
)

type estimateRequest struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

type volumeRequest struct {
	Sets []analytics.LoggedSet `json:"sets"`
}

type progressionRequest struct {
	Performance analytics.ExercisePerformance `json:"performance"`
	Sessions    []analytics.Session           `json:"sessions"`
}

type deloadRequest struct {
	Sessions   []analytics.Session `json:"sessions"`
	WindowDays int                 `json:"window_days"`
}

func (s *Server) handleEstimate1RM(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := analytics.Estimate1RM(req.Weight, req.Reps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"estimated_1rm": v})
}

func (s *Server) handleCalculateVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := analytics.CalculateVolume(req.Sets)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCalculateProgression(w http.ResponseWriter, r *http.Request) {
	var req progressionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := analytics.CalculateProgression(req.Performance, req.Sessions)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRecoveryScore(w http.ResponseWriter, r *http.Request) {
	var in analytics.RecoveryInput
	if !decodeBody(w, r, &in) {
		return
	}
	m, err := analytics.CalculateRecoveryScore(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDetectDeload(w http.ResponseWriter, r *http.Request) {
	var req deloadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.WindowDays == 0 {
		req.WindowDays = analytics.DefaultDeloadWindowDays
	}
	a, err := analytics.DetectDeloadNeed(req.Sessions, req.WindowDays)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}
