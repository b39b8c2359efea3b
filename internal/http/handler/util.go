package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gymchain/gymchain-api/internal/http/response"
	"github.com/gymchain/gymchain-api/internal/security"
	"github.com/gymchain/gymchain-api/internal/service"
)

var errEmptyBody = errors.New("request body is required")

func parsePathID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(n), nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func actorID(r *http.Request) string {
	if claims, ok := security.ClaimsFromContext(r.Context()); ok && claims.Subject != "" {
		return claims.Subject
	}
	return "unknown"
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// writeServiceError maps service sentinels onto the error envelope. action
// names the failed operation in the generic 500 message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient authority", nil)
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrWorkoutNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case service.IsValidationError(err):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, service.ErrAccountEmailTaken):
		response.Error(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		slog.ErrorContext(r.Context(), "request failed", "action", action, "error", err.Error())
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to "+action, nil)
	}
}
