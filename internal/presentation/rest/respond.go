package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
)

const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError maps err's kind onto an HTTP status. Unclassified errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := apperror.KindOf(err)
	status := statusOf(kind)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		writeJSON(w, status, errorBody{Kind: "internal", Message: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Kind: string(kind), Message: apperror.MessageOf(err)})
}

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict, apperror.KindDuplicatePayment:
		return http.StatusConflict
	case apperror.KindInvalidState,
		apperror.KindNoPendingInstallments,
		apperror.KindNegativeAmortization,
		apperror.KindMissingRate,
		apperror.KindInvalidSchedule,
		apperror.KindUnsupportedModel:
		return http.StatusUnprocessableEntity
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperror.Wrap(apperror.KindValidation, err, "malformed JSON body")
}
