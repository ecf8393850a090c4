package main

import (
	"net/http"
)

type ChallengeRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

type ChallengeResponse struct {
	ChallengeID string `json:"challenge_id,omitempty"`
	DevCode     string `json:"dev_code,omitempty"`
	Verified    bool   `json:"verified"`
}

type VerifyRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
	Code        string `json:"code" validate:"required,numeric,min=4,max=8"`
}

// requestChallengeHandler godoc
//
//	@Summary		Send a verification code
//	@Tags			verification
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string				true	"Session ID"
//	@Param			request			body		ChallengeRequest	true	"Phone number"
//	@Success		200				{object}	ChallengeResponse
//	@Failure		400				{object}	map[string]string
//	@Failure		429				{object}	map[string]string
//	@Failure		503				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/verification/challenge [post]
func (app *application) requestChallengeHandler(w http.ResponseWriter, r *http.Request) {
	var req ChallengeRequest
	if err := readJson(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	challenge, err := app.verificationService.RequestChallenge(r.Context(), getGuest(r), req.Phone)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	response := ChallengeResponse{Verified: challenge == nil}
	if challenge != nil {
		response.ChallengeID = challenge.ID
		if app.config.env == "development" {
			response.DevCode = challenge.DevCode
		}
	}

	if err := app.jsonRespone(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// verifyCodeHandler godoc
//
//	@Summary		Submit a verification code
//	@Tags			verification
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string			true	"Session ID"
//	@Param			request			body		VerifyRequest	true	"Challenge and code"
//	@Success		200				{object}	ChallengeResponse
//	@Failure		400				{object}	map[string]string
//	@Failure		422				{object}	map[string]string
//	@Failure		503				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/verification/verify [post]
func (app *application) verifyCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := readJson(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.verificationService.Verify(r.Context(), getGuest(r), req.ChallengeID, req.Code); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, ChallengeResponse{Verified: true}); err != nil {
		app.internalServerError(w, r, err)
	}
}
