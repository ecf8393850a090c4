package main

import (
	"errors"
	"net/http"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusInternalServerError, "the server encountered a problem", nil)
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusBadRequest, err.Error(), nil)
}

func (app *application) unprocessableResponse(w http.ResponseWriter, r *http.Request, err error, details any) {
	app.logger.Warnw("unprocessable request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusUnprocessableEntity, err.Error(), details)
}

func (app *application) notFoundError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusNotFound, "not found", nil)
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusConflict, err.Error(), nil)
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusForbidden, err.Error(), nil)
}

func (app *application) unauthorizedResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusUnauthorized, "unauthorized", nil)
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJsonError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter, nil)
}

func (app *application) unavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("dependency unavailable", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusServiceUnavailable, "service temporarily unavailable", nil)
}

// errorResponse maps service errors onto HTTP statuses.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var missing *domain.MissingModifiersError

	switch {
	case errors.As(err, &missing):
		app.unprocessableResponse(w, r, err, missing.Missing)

	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrEmptySelection),
		errors.Is(err, domain.ErrNothingToPay),
		errors.Is(err, domain.ErrItemUnavailable),
		errors.Is(err, domain.ErrCodeRejected),
		errors.Is(err, domain.ErrChallengeMismatch):
		app.unprocessableResponse(w, r, err, nil)

	case errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrPaymentMethodDisabled),
		errors.Is(err, domain.ErrTipsNotAllowed),
		errors.Is(err, domain.ErrInvalidTableLink):
		app.badRequestResponse(w, r, err)

	case errors.Is(err, domain.ErrVerificationRequired),
		errors.Is(err, domain.ErrPartyDisabled),
		errors.Is(err, domain.ErrWholeTableDisabled):
		app.forbiddenResponse(w, r, err)

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrSessionExpired):
		app.unauthorizedResponse(w, r, err)

	case errors.Is(err, domain.ErrPINNotFound),
		errors.Is(err, domain.ErrNotFound):
		app.notFoundError(w, r, err)

	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrBillOutstanding),
		errors.Is(err, domain.ErrAlreadyInParty),
		errors.Is(err, domain.ErrNotPartyMember),
		errors.Is(err, domain.ErrPINTaken):
		app.conflictResponse(w, r, err)

	case errors.Is(err, domain.ErrRateLimited):
		app.logger.Warnw("rate limited", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		writeJsonError(w, http.StatusTooManyRequests, err.Error(), nil)

	case errors.Is(err, domain.ErrUnavailable):
		app.unavailableResponse(w, r, err)

	default:
		app.internalServerError(w, r, err)
	}
}
