package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
)

const maxBodyBytes = 16 << 20

// reportRequest is the body of POST /api/v1/reports.
type reportRequest struct {
	History []domain.OutageEvent `json:"history" validate:"dive"`
	ZipCode string               `json:"zipCode" validate:"omitempty,len=5,numeric"`
}

// exportRequest wraps the exported history so each event is struct-validated.
type exportRequest struct {
	History []domain.OutageEvent `validate:"dive"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, s.registry.BuildReport(req.History, req.ZipCode))
}

// handleExportCSV renders the posted history array as CSV. The optional zip
// query parameter restricts the export to one zip code.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var history []domain.OutageEvent
	if err := s.decode(w, r, &history); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(exportRequest{History: history}); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	zip := r.URL.Query().Get("zip")
	name := "nes-outages.csv"
	if zip != "" {
		name = fmt.Sprintf("nes-outages-%s.csv", zip)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.registry.ToCSV(history, zip)))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
