package main

import (
	"net/http"
)

// getMenuHandler godoc
//
//	@Summary		Get the branch menu
//	@Description	Menu of the branch the guest session belongs to
//	@Tags			menus
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Session ID"
//	@Success		200				{object}	domain.Menu
//	@Failure		401				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Failure		500				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/menu [get]
func (app *application) getMenuHandler(w http.ResponseWriter, r *http.Request) {
	menu, err := app.orderService.Menu(r.Context(), getGuest(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, menu); err != nil {
		app.internalServerError(w, r, err)
	}
}
