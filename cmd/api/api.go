package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Beka01247/kwaaka-table/docs"
	"github.com/Beka01247/kwaaka-table/internal/bill"
	"github.com/Beka01247/kwaaka-table/internal/guest"
	"github.com/Beka01247/kwaaka-table/internal/metrics"
	"github.com/Beka01247/kwaaka-table/internal/otp"
	"github.com/Beka01247/kwaaka-table/internal/queue"
	"github.com/Beka01247/kwaaka-table/internal/ratelimiter"
	"github.com/Beka01247/kwaaka-table/internal/service"
	"github.com/Beka01247/kwaaka-table/internal/store/mongo"
	"github.com/Beka01247/kwaaka-table/internal/worker"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config              config
	logger              *zap.SugaredLogger
	rateLimiter         ratelimiter.Limiter
	storage             *mongo.Storage
	broker              queue.Broker
	registry            *guest.Registry
	poller              *bill.Poller
	sessionService      *service.SessionService
	orderService        *service.OrderService
	verificationService *service.VerificationService
	partyService        *service.PartyService
	billService         *service.BillService
	paymentWorker       *worker.PaymentWorker
	otpState            func() string
}

type config struct {
	addr         string
	env          string
	apiURL       string
	storage      string
	linkSecret   string
	sessionTTL   time.Duration
	pollInterval time.Duration
	policyFile   string
	rateLimiter  ratelimiter.Config
	guestLimiter ratelimiter.Config
	mongo        mongoConfig
	rabbitMQ     rabbitMQConfig
	otp          otp.Config
}

type mongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type rabbitMQConfig struct {
	URL           string
	MaxRetries    int
	RetryDelay    time.Duration
	PrefetchCount int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(app.rateLimiterMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Handle("/metrics", promhttp.Handler())

		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.Post("/sessions", app.createSessionHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.sessionAuthMiddleware)

			r.Get("/session", app.getSessionHandler)
			r.Get("/menu", app.getMenuHandler)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", app.getCartHandler)
				r.Post("/items", app.addCartItemHandler)
				r.Route("/items/{item_id}", func(r chi.Router) {
					r.Delete("/", app.removeCartItemHandler)
					r.Put("/modifiers", app.setModifierHandler)
					r.Put("/comment", app.setCommentHandler)
					r.Post("/refresh", app.refreshCartItemHandler)
				})
			})

			r.Post("/orders", app.submitOrderHandler)

			r.Post("/verification/challenge", app.requestChallengeHandler)
			r.Post("/verification/verify", app.verifyCodeHandler)

			r.Route("/party", func(r chi.Router) {
				r.Get("/", app.getPartyHandler)
				r.Post("/", app.createPartyHandler)
				r.Post("/join", app.joinPartyHandler)
				r.Post("/close", app.closePartyHandler)
			})

			r.Route("/bills", func(r chi.Router) {
				r.Post("/", app.createBillHandler)
				r.Get("/current", app.getCurrentBillHandler)
				r.Get("/stream", app.billStreamHandler)
				r.Post("/{bill_id}/cancel", app.cancelBillHandler)
			})
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	// docs
	docs.SwaggerInfo.Title = "Kwaaka Table"
	docs.SwaggerInfo.Description = "Guest ordering and bill splitting API"
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/api/v1"

	// workers
	if app.paymentWorker != nil {
		if err := app.paymentWorker.Start(); err != nil {
			return fmt.Errorf("failed to start payment worker: %w", err)
		}
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go app.registry.Run(sweepCtx, time.Minute)

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		stopSweep()

		if app.paymentWorker != nil {
			app.paymentWorker.Stop()
		}

		if app.poller != nil {
			app.poller.Close()
			app.logger.Info("bill poller stopped")
		}

		err := srv.Shutdown(ctx)

		if app.broker != nil {
			if err := app.broker.Close(); err != nil {
				app.logger.Errorw("error closing RabbitMQ", "error", err)
			} else {
				app.logger.Info("message broker closed gracefully")
			}
		}

		if app.storage != nil {
			if err := app.storage.Close(ctx); err != nil {
				app.logger.Errorw("error closing MongoDB", "error", err)
			} else {
				app.logger.Info("MongoDB connection closed gracefully")
			}
		}

		shutdown <- err
	}()

	app.logger.Infow("server have started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
