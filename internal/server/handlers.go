package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-viper/mapstructure/v2"

	"modelhub-monitor/internal/apperrors"
	"modelhub-monitor/internal/dashboard"
	"modelhub-monitor/internal/monitoring"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp dashboard.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

// writeErr maps the error's app code onto an HTTP status. Errors without
// a code come out as 500s.
func (s *Server) writeErr(w http.ResponseWriter, kind string, err error) {
	s.writeJSON(w, apperrors.AsAppError(err).HTTPStatus(), dashboard.NewAPIError(kind, err.Error()))
}

// handleDashboard rebuilds and renders the dashboard on every request.
func (s *Server) handleDashboard(w http.ResponseWriter, req *http.Request) {
	data := s.builder.Build(s.catalog.All(), s.tracker)
	if tracked := s.tracker.Models(); len(tracked) > 0 {
		data.ReportMarkdown = monitoring.GenerateMarkdownReport(s.tracker, tracked)
	}

	page, err := s.renderer.Render(data)
	if err != nil {
		s.logger.Error("dashboard render failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := fmt.Fprint(w, page); err != nil {
		s.logger.Debug("dashboard write failed", "error", err)
	}
}

func (s *Server) handleModels(w http.ResponseWriter, req *http.Request) {
	models := s.catalog.All()
	payload := map[string]interface{}{
		"models": models,
		"count":  len(models),
	}
	s.writeJSON(w, http.StatusOK, dashboard.NewAPIResponse("models", payload))
}

func (s *Server) handleModelSummary(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	summary, err := s.tracker.Summary(name)
	if err != nil {
		s.writeErr(w, "summary", fmt.Errorf("%w for model: %s", err, name))
		return
	}

	s.writeJSON(w, http.StatusOK, dashboard.NewAPIResponse("summary", summary))
}

func (s *Server) handleModelUptime(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	uptime, err := s.tracker.Uptime(name)
	if err != nil {
		s.writeErr(w, "uptime", fmt.Errorf("%w for model: %s", err, name))
		return
	}

	s.writeJSON(w, http.StatusOK, dashboard.NewAPIResponse("uptime", uptime))
}

func (s *Server) handleOverview(w http.ResponseWriter, req *http.Request) {
	s.writeJSON(w, http.StatusOK, dashboard.NewAPIResponse("overview", s.tracker.Overview()))
}

func (s *Server) handleAlerts(w http.ResponseWriter, req *http.Request) {
	alerts := s.tracker.Alerts()
	payload := map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	}
	s.writeJSON(w, http.StatusOK, dashboard.NewAPIResponse("alerts", payload))
}

func (s *Server) handleGetThresholds(w http.ResponseWriter, req *http.Request) {
	s.writeJSON(w, http.StatusOK, dashboard.NewAPIResponse("thresholds", s.tracker.Thresholds()))
}

// handlePutThresholds replaces the limit table wholesale. Keys absent
// from the body come out zero, which disables their checks.
func (s *Server) handlePutThresholds(w http.ResponseWriter, req *http.Request) {
	var raw map[string]interface{}
	if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
		s.writeErr(w, "thresholds", apperrors.New(apperrors.CodeValidation, "invalid JSON payload"))
		return
	}

	var th monitoring.Thresholds
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &th,
		WeaklyTypedInput: true,
	})
	if err != nil {
		s.writeErr(w, "thresholds", err)
		return
	}
	if err := dec.Decode(raw); err != nil {
		s.writeErr(w, "thresholds",
			apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid threshold values: %v", err)))
		return
	}

	s.tracker.SetThresholds(th)
	s.writeJSON(w, http.StatusOK, dashboard.NewAPIResponse("thresholds", th))
}

func (s *Server) handleNotFound(w http.ResponseWriter, req *http.Request) {
	s.writeJSON(w, http.StatusNotFound, dashboard.NewAPIError("request", "endpoint not found"))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	s.writeJSON(w, http.StatusMethodNotAllowed, dashboard.NewAPIError("request", "method not allowed"))
}
