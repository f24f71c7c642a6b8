package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/agents"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/geometry"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// The estimate and furniture endpoints are synchronous wrappers over
// single agents: no job, no stream, one LLM round trip on a layout the
// client already holds.

type estimateRequest struct {
	Config plan.ProjectConfig  `json:"config"`
	Graph  plan.FloorPlanGraph `json:"graph"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if s.cost == nil {
		s.writeError(w, http.StatusNotImplemented, "cost estimation not configured")
		return
	}
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Graph.Rooms) == 0 {
		s.writeError(w, http.StatusBadRequest, "graph has no rooms")
		return
	}

	est, meta, err := s.cost.Execute(r.Context(), agents.CostInput{
		Config: req.Config,
		Graph:  geometry.Normalize(req.Graph),
	})
	if err != nil {
		s.logger.Warn("estimate wrapper failed", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "cost estimation failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"bom":            est.BOM,
		"totalCostRange": est.Total,
		"metadata":       meta,
	})
}

type furnitureRequest struct {
	Graph plan.FloorPlanGraph `json:"graph"`
}

func (s *Server) handleFurniture(w http.ResponseWriter, r *http.Request) {
	if s.furnish == nil {
		s.writeError(w, http.StatusNotImplemented, "furniture placement not configured")
		return
	}
	var req furnitureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Graph.Rooms) == 0 {
		s.writeError(w, http.StatusBadRequest, "graph has no rooms")
		return
	}

	placed, meta, err := s.furnish.Execute(r.Context(), agents.FurnitureInput{
		Graph: geometry.Normalize(req.Graph),
	})
	if err != nil {
		s.logger.Warn("furniture wrapper failed", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "furniture placement failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"furniture": placed,
		"metadata":  meta,
	})
}
