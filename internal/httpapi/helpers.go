package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/webizupfr/notion-mirror/internal/cohorts"
	"github.com/webizupfr/notion-mirror/internal/store"
	"github.com/webizupfr/notion-mirror/internal/sync"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	if store.IsNotFound(err) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: err.Error(),
		}
	}

	if errors.Is(err, cohorts.ErrCohortNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: err.Error(),
		}
	}

	if errors.Is(err, cohorts.ErrHubMismatch) ||
		errors.Is(err, cohorts.ErrNoLearningPath) ||
		errors.Is(err, sync.ErrSlugRequired) {
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	}

	var wrapped *goerrors.Error
	if goerrors.As(err, &wrapped) {
		switch wrapped.Category {
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()}
		case goerrors.CategoryAuth:
			return http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: err.Error()}
		case goerrors.CategoryAuthz:
			return http.StatusForbidden, errorResponse{Error: "forbidden", Message: err.Error()}
		case goerrors.CategoryNotFound:
			return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
		case goerrors.CategoryConflict:
			return http.StatusConflict, errorResponse{Error: "conflict", Message: err.Error()}
		case goerrors.CategoryRateLimit:
			return http.StatusTooManyRequests, errorResponse{Error: "rate_limited", Message: err.Error()}
		case goerrors.CategoryExternal:
			return http.StatusBadGateway, errorResponse{Error: "upstream_error", Message: err.Error()}
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

func parseBoolQuery(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}
