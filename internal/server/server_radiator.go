package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jenkinsci/radiatorview/internal/protocol"
	"github.com/jenkinsci/radiatorview/internal/server/httpx"
	"github.com/jenkinsci/radiatorview/internal/store"
)

func (s *radiatorServer) radiatorHandler(w http.ResponseWriter, r *http.Request) {
	grouped, err := parseGroupedParam(r.URL.Query().Get("grouped"), s.cfg.Settings().GroupByPrefix)
	if err != nil {
		http.Error(w, "grouped must be true or false", http.StatusBadRequest)
		return
	}
	out, _, err := s.render(r.Context(), grouped)
	if err != nil {
		slog.Error("render radiator", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (s *radiatorServer) claimHandler(w http.ResponseWriter, r *http.Request) {
	var req protocol.ClaimRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	resp, err := s.db.SetClaim(r.Context(), req)
	if errors.Is(err, store.ErrNotFound) {
		httpx.WriteJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if errors.Is(err, store.ErrInvalid) {
		httpx.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		slog.Error("record claim", "job", req.Job, "build", req.Build, "error", err)
		http.Error(w, "record claim failed", http.StatusInternalServerError)
		return
	}
	slog.Info("claim recorded",
		"job", resp.Job,
		"build", resp.Build,
		"combination", resp.Combination,
		"claimed", resp.Claimed,
		"claimed_by", req.ClaimedBy,
	)
	if _, err := s.refresh(r.Context()); err != nil {
		slog.Warn("refresh after claim", "error", err)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
