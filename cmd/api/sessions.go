package main

import (
	"net/http"
	"time"
)

type CreateSessionRequest struct {
	Token  string `json:"token" validate:"required"`
	Locale string `json:"locale" validate:"omitempty,max=16"`
}

type SessionResponse struct {
	SessionID   string    `json:"session_id"`
	Secret      string    `json:"secret,omitempty"`
	TableID     string    `json:"table_id"`
	BranchID    string    `json:"branch_id"`
	Locale      string    `json:"locale"`
	OTPRequired bool      `json:"otp_required"`
	IsVerified  bool      `json:"is_verified"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// createSessionHandler godoc
//
//	@Summary		Open a guest session
//	@Description	Activates a guest session from a signed table link
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateSessionRequest	true	"Table link"
//	@Success		201		{object}	SessionResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		503		{object}	map[string]string
//	@Router			/sessions [post]
func (app *application) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := readJson(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	session, err := app.sessionService.Activate(r.Context(), req.Token, locale)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	response := SessionResponse{
		SessionID:   session.ID,
		Secret:      session.Secret,
		TableID:     session.TableID,
		BranchID:    session.BranchID,
		Locale:      session.Locale,
		OTPRequired: session.OTPRequired,
		IsVerified:  session.IsVerified,
		ExpiresAt:   session.ExpiresAt,
	}

	if err := app.jsonRespone(w, http.StatusCreated, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getSessionHandler godoc
//
//	@Summary		Current guest session
//	@Tags			sessions
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Session ID"
//	@Success		200				{object}	SessionResponse
//	@Failure		401				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/session [get]
func (app *application) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	gctx := getGuest(r)
	session := gctx.Session()

	response := SessionResponse{
		SessionID:   session.ID,
		TableID:     session.TableID,
		BranchID:    session.BranchID,
		Locale:      session.Locale,
		OTPRequired: session.OTPRequired,
		IsVerified:  session.IsVerified,
		ExpiresAt:   session.ExpiresAt,
	}

	if err := app.jsonRespone(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}
