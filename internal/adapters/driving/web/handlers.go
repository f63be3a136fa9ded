package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// maxRequestBytes bounds the POST /api/ask body.
const maxRequestBytes = 64 << 10

// outcomeRateLimited marks ask responses refused by the rate limiter.
const outcomeRateLimited = "rate_limited"

type pageData struct {
	Title    string
	Question string
	Answer   string
	Fallback string
}

// handlePage renders the page. A non-empty q is answered server-side.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: s.cfg.Title, Fallback: s.cfg.Fallback}
	if q := r.URL.Query().Get("q"); strings.TrimSpace(q) != "" {
		data.Question = q
		data.Answer = s.pipeline.Ask(r.Context(), q).Display()
	}
	s.renderPage(w, http.StatusOK, data)
}

// handlePageLimited renders the page with the fallback instead of asking.
func (s *Server) handlePageLimited(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: s.cfg.Title, Fallback: s.cfg.Fallback}
	if q := r.URL.Query().Get("q"); strings.TrimSpace(q) != "" {
		data.Question = q
		data.Answer = s.cfg.Fallback
	}
	s.renderPage(w, http.StatusTooManyRequests, data)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		logger.Error("render page: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleAskGet(w http.ResponseWriter, r *http.Request) {
	s.ask(w, r, r.URL.Query().Get("q"))
}

func (s *Server) handleAskPost(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.ask(w, r, req.Question)
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request, question string) {
	answer := s.pipeline.Ask(r.Context(), question)
	writeJSON(w, statusForOutcome(answer.Outcome), newAskResponse(answer))
}

// handleAskLimited answers a rate-limited ask with the fallback so clients
// always get a displayable JSON body.
func (s *Server) handleAskLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, AskResponse{
		Question: r.URL.Query().Get("q"),
		Answer:   s.cfg.Fallback,
		Outcome:  outcomeRateLimited,
		Reason:   domain.ErrRateLimited.Error(),
		Sources:  []SourceInfo{},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.pipeline.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats, ok := s.pipeline.Stats()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, domain.ErrNotReady.Error())
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(stats))
}

// statusForOutcome maps outcomes the caller can act on to HTTP statuses.
// Backend failures still return 200 because the body carries a usable answer.
func statusForOutcome(o domain.Outcome) int {
	switch o {
	case domain.OutcomeInvalidQuestion:
		return http.StatusBadRequest
	case domain.OutcomeNotReady:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
