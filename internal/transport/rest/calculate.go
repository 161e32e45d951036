package rest

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"loanwise/internal/engine"
	"loanwise/internal/transport/auth"
)

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateCalculationRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	if err := req.Validate(); err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	result, err := h.loans.Calculate(r.Context(), *req, userID)
	if err != nil {
		if isInputError(err) {
			ErrorBadRequest(w, err.Error())
			return
		}
		log.Printf("[HTTP] calculate error: %v", err)
		ErrorInternal(w, "failed to calculate schedule")
		return
	}

	Success(w, "", result)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			ErrorBadRequest(w, "limit must be a non-negative integer")
			return
		}
	}

	records, err := h.loans.History(r.Context(), userID, limit)
	if err != nil {
		log.Printf("[HTTP] listHistory error: %v", err)
		ErrorInternal(w, "failed to get history")
		return
	}

	Success(w, "", records)
}

// isInputError separates bad borrower input from internal failures.
// Validation errors and engine sentinels both map to a 400.
func isInputError(err error) bool {
	switch {
	case errors.Is(err, engine.ErrInvalidRate),
		errors.Is(err, engine.ErrInvalidTenure),
		errors.Is(err, engine.ErrInvalidPrepayment),
		errors.Is(err, engine.ErrEmptySchedule):
		return true
	}
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
