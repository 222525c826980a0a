package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondErr maps tracker errors to HTTP status codes
func respondErr(w http.ResponseWriter, log *logger.Logger, err error, msg string) {
	switch {
	case errors.Is(err, contracts.ErrInvalidScenario),
		errors.Is(err, contracts.ErrInvalidParameter):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contracts.ErrPeriodNotComplete):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).Error(msg)
		respondError(w, http.StatusInternalServerError, msg)
	}
}

// decodeJSON reads an optional JSON body into dst; an empty body is not an error
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}
