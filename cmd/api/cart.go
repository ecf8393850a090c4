package main

import (
	"net/http"

	"github.com/Beka01247/kwaaka-table/internal/service"
	"github.com/go-chi/chi"
)

type AddCartItemRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

type AddCartItemResponse struct {
	NeedsAttention bool                 `json:"needs_attention"`
	Cart           service.CartSnapshot `json:"cart"`
}

type SetModifierRequest struct {
	GroupID  string `json:"group_id" validate:"required"`
	OptionID string `json:"option_id" validate:"required"`
	Selected *bool  `json:"selected" validate:"required"`
}

type SetCommentRequest struct {
	Comment string `json:"comment" validate:"max=500"`
}

type RefreshCartItemResponse struct {
	Applied bool                 `json:"applied"`
	Cart    service.CartSnapshot `json:"cart"`
}

// getCartHandler godoc
//
//	@Summary		Get the cart
//	@Tags			cart
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Session ID"
//	@Success		200				{object}	service.CartSnapshot
//	@Failure		401				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/cart [get]
func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.jsonRespone(w, http.StatusOK, app.orderService.Cart(getGuest(r))); err != nil {
		app.internalServerError(w, r, err)
	}
}

// addCartItemHandler godoc
//
//	@Summary		Add a menu item to the cart
//	@Description	Adds one unit; needs_attention is set when the item has required modifier groups
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string				true	"Session ID"
//	@Param			request			body		AddCartItemRequest	true	"Menu item"
//	@Success		200				{object}	AddCartItemResponse
//	@Failure		400				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Failure		422				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/cart/items [post]
func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := readJson(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	gctx := getGuest(r)
	needsAttention, err := app.orderService.AddItem(r.Context(), gctx, req.ItemID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	response := AddCartItemResponse{
		NeedsAttention: needsAttention,
		Cart:           app.orderService.Cart(gctx),
	}

	if err := app.jsonRespone(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// removeCartItemHandler godoc
//
//	@Summary		Remove one unit of a cart line
//	@Tags			cart
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Session ID"
//	@Param			item_id			path		string	true	"Menu item ID"
//	@Success		200				{object}	service.CartSnapshot
//	@Security		ApiKeyAuth
//	@Router			/cart/items/{item_id} [delete]
func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, app.orderService.RemoveItem(getGuest(r), itemID)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// setModifierHandler godoc
//
//	@Summary		Toggle a modifier option on a cart line
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string				true	"Session ID"
//	@Param			item_id			path		string				true	"Menu item ID"
//	@Param			request			body		SetModifierRequest	true	"Option"
//	@Success		200				{object}	service.CartSnapshot
//	@Failure		400				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/cart/items/{item_id}/modifiers [put]
func (app *application) setModifierHandler(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	var req SetModifierRequest
	if err := readJson(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	snap, err := app.orderService.SetModifier(getGuest(r), itemID, req.GroupID, req.OptionID, *req.Selected)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, snap); err != nil {
		app.internalServerError(w, r, err)
	}
}

// setCommentHandler godoc
//
//	@Summary		Set the comment of a cart line
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string				true	"Session ID"
//	@Param			item_id			path		string				true	"Menu item ID"
//	@Param			request			body		SetCommentRequest	true	"Comment"
//	@Success		200				{object}	service.CartSnapshot
//	@Failure		400				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/cart/items/{item_id}/comment [put]
func (app *application) setCommentHandler(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	var req SetCommentRequest
	if err := readJson(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	snap, err := app.orderService.SetComment(getGuest(r), itemID, req.Comment)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, snap); err != nil {
		app.internalServerError(w, r, err)
	}
}

// refreshCartItemHandler godoc
//
//	@Summary		Reload modifier groups of a cart line
//	@Description	applied is false when the line changed while the catalog was read
//	@Tags			cart
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Session ID"
//	@Param			item_id			path		string	true	"Menu item ID"
//	@Success		200				{object}	RefreshCartItemResponse
//	@Failure		404				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/cart/items/{item_id}/refresh [post]
func (app *application) refreshCartItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	gctx := getGuest(r)
	applied, err := app.orderService.RefreshItem(r.Context(), gctx, itemID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	response := RefreshCartItemResponse{
		Applied: applied,
		Cart:    app.orderService.Cart(gctx),
	}

	if err := app.jsonRespone(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}
