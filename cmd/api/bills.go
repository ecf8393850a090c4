package main

import (
	"net/http"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/bill"
	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type CreateBillRequest struct {
	Mode          string   `json:"mode" validate:"required,oneof=MY SELECTED WHOLE_TABLE"`
	PaymentMethod string   `json:"payment_method" validate:"required,oneof=CASH TERMINAL"`
	TipsPercent   *int     `json:"tips_percent" validate:"omitempty,min=0,max=100"`
	ItemIDs       []string `json:"item_ids" validate:"omitempty,dive,required"`
}

// createBillHandler godoc
//
//	@Summary		Ask for the bill
//	@Description	MY covers the guest's own unpaid items, SELECTED the listed ones, WHOLE_TABLE the whole party
//	@Tags			bills
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string				true	"Session ID"
//	@Param			request			body		CreateBillRequest	true	"Bill request"
//	@Success		201				{object}	domain.BillRequest
//	@Failure		400				{object}	map[string]string
//	@Failure		403				{object}	map[string]string
//	@Failure		409				{object}	map[string]string
//	@Failure		422				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/bills [post]
func (app *application) createBillHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if err := readJson(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	br, err := app.billService.Create(r.Context(), getGuest(r), bill.Request{
		Mode:          domain.BillMode(req.Mode),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		TipsPercent:   req.TipsPercent,
		ItemIDs:       req.ItemIDs,
	})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusCreated, br); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getCurrentBillHandler godoc
//
//	@Summary		Current bill request
//	@Tags			bills
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Session ID"
//	@Success		200				{object}	domain.BillRequest
//	@Failure		404				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/bills/current [get]
func (app *application) getCurrentBillHandler(w http.ResponseWriter, r *http.Request) {
	br, err := app.billService.Current(r.Context(), getGuest(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, br); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelBillHandler godoc
//
//	@Summary		Cancel a bill request
//	@Tags			bills
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Session ID"
//	@Param			bill_id			path		string	true	"Bill request ID"
//	@Success		200				{object}	domain.BillRequest
//	@Failure		404				{object}	map[string]string
//	@Failure		409				{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/bills/{bill_id}/cancel [post]
func (app *application) cancelBillHandler(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "bill_id")
	if billID == "" {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	br, err := app.billService.Cancel(r.Context(), getGuest(r), billID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, br); err != nil {
		app.internalServerError(w, r, err)
	}
}

// billStreamHandler godoc
//
//	@Summary		Bill status stream
//	@Description	WebSocket; pushes the session's bill request whenever its status changes
//	@Tags			bills
//	@Param			X-Session-ID	header	string	true	"Session ID"
//	@Success		101
//	@Security		ApiKeyAuth
//	@Router			/bills/stream [get]
func (app *application) billStreamHandler(w http.ResponseWriter, r *http.Request) {
	gctx := getGuest(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.logger.Warnw("websocket upgrade failed", "session_id", gctx.ID(), "error", err)
		return
	}
	defer conn.Close()

	// the client never sends data; reading detects the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	app.logger.Debugw("bill stream opened", "session_id", gctx.ID())

	send := func() error {
		br := gctx.Bill()
		if br == nil {
			return nil
		}
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(br)
	}

	changed := gctx.BillChanged()
	if err := send(); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			app.logger.Debugw("bill stream closed", "session_id", gctx.ID())
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-changed:
			changed = gctx.BillChanged()
			if err := send(); err != nil {
				return
			}
		}
	}
}
