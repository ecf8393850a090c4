package main

import (
	"net/http"
)

type JoinPartyRequest struct {
	PIN string `json:"pin" validate:"required,len=4,numeric"`
}

// getPartyHandler godoc
//
//	@Summary		Active party of the session
//	@Tags			party
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Session ID"
//	@Success		200				{object}	domain.Party
//	@Failure		404				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/party [get]
func (app *application) getPartyHandler(w http.ResponseWriter, r *http.Request) {
	party, err := app.partyService.Active(r.Context(), getGuest(r).ID())
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, party); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createPartyHandler godoc
//
//	@Summary		Open a party
//	@Description	Creates a party with a 4-digit PIN other guests at the branch can join with
//	@Tags			party
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Session ID"
//	@Success		201				{object}	domain.Party
//	@Failure		403				{object}	map[string]string
//	@Failure		409				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/party [post]
func (app *application) createPartyHandler(w http.ResponseWriter, r *http.Request) {
	party, err := app.partyService.Create(r.Context(), getGuest(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusCreated, party); err != nil {
		app.internalServerError(w, r, err)
	}
}

// joinPartyHandler godoc
//
//	@Summary		Join a party by PIN
//	@Tags			party
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string				true	"Session ID"
//	@Param			request			body		JoinPartyRequest	true	"PIN"
//	@Success		200				{object}	domain.Party
//	@Failure		400				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Failure		409				{object}	map[string]string
//	@Failure		429				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/party/join [post]
func (app *application) joinPartyHandler(w http.ResponseWriter, r *http.Request) {
	var req JoinPartyRequest
	if err := readJson(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	party, err := app.partyService.Join(r.Context(), getGuest(r), req.PIN)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, party); err != nil {
		app.internalServerError(w, r, err)
	}
}

// closePartyHandler godoc
//
//	@Summary		Close the active party
//	@Tags			party
//	@Param			X-Session-ID	header	string	true	"Session ID"
//	@Success		204
//	@Failure		409	{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/party/close [post]
func (app *application) closePartyHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.partyService.Close(r.Context(), getGuest(r)); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
