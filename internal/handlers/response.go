package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"spandi-backend/internal/flows"
	"spandi-backend/internal/middleware"
	"spandi-backend/internal/models"
	"spandi-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return errorRespWithFields(code, message, nil, r)
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *services.ValidationError
		fve *flows.ValidationError
		ce  *services.ConflictError
		nf  *services.NotFoundError
		nc  *services.NotConfiguredError
		ae  *services.AIError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", ve.Fields, r))
	case errors.As(err, &fve):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fve.Fields, r))
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", ce.Message, r))
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", nf.Message, r))
	case errors.As(err, &nc):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("NOT_CONFIGURED", "Spandi Bot is not configured yet", r))
	case errors.As(err, &ae):
		var fields map[string]string
		if ae.Composer != "" {
			fields = map[string]string{"composer": ae.Composer}
		}
		writeJSON(w, http.StatusBadGateway, errorRespWithFields("AI_ERROR", services.AIErrorMessage, fields, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
