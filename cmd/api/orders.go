package main

import (
	"net/http"
)

// submitOrderHandler godoc
//
//	@Summary		Place the cart as an order
//	@Description	Requires phone verification when the branch demands it; the cart is cleared on success
//	@Tags			orders
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Session ID"
//	@Success		201				{object}	domain.Order
//	@Failure		403				{object}	map[string]string
//	@Failure		422				{object}	map[string]string
//	@Failure		503				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/orders [post]
func (app *application) submitOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, err := app.orderService.Submit(r.Context(), getGuest(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusCreated, order); err != nil {
		app.internalServerError(w, r, err)
	}
}
