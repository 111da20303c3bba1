package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	appclick "github.com/shopmini/paycore/internal/application/click"
	appfiscal "github.com/shopmini/paycore/internal/application/fiscal"
	appnotify "github.com/shopmini/paycore/internal/application/notify"
	apporder "github.com/shopmini/paycore/internal/application/order"
	apppayme "github.com/shopmini/paycore/internal/application/payme"
	"github.com/shopmini/paycore/internal/application/reaper"
	"github.com/shopmini/paycore/internal/config"
	"github.com/shopmini/paycore/internal/infrastructure/fiscal"
	"github.com/shopmini/paycore/internal/infrastructure/gormrepo"
	"github.com/shopmini/paycore/internal/infrastructure/httpapi"
	observabilityinfra "github.com/shopmini/paycore/internal/infrastructure/observability"
	"github.com/shopmini/paycore/internal/infrastructure/observability/oteltrace"
	"github.com/shopmini/paycore/internal/infrastructure/observability/prometrics"
	"github.com/shopmini/paycore/internal/infrastructure/observability/zaplogger"
	"github.com/shopmini/paycore/internal/infrastructure/notify/telegram"
	"github.com/shopmini/paycore/internal/infrastructure/outbox"
	"github.com/shopmini/paycore/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zlog := zaplogger.New(cfg.LogFile, observability.F("service", "paycore"))
	if syncer, ok := zlog.(interface{ Sync() error }); ok {
		defer syncer.Sync()
	}

	metrics := prometrics.New("paycore", []prometrics.Spec{
		{Key: observability.MUsecaseRequests, Help: "use case invocations", LabelKeys: []string{"use_case", "outcome"}},
		{Key: observability.MUsecaseDuration, Help: "use case duration seconds", LabelKeys: []string{"use_case"}, Histogram: true, Buckets: []float64{.01, .05, .1, .5, 1, 2, 5}},
		{Key: observability.MHTTPRequests, Help: "http requests", LabelKeys: []string{"method", "route", "status"}},
		{Key: observability.MHTTPRequestDuration, Help: "http request duration seconds", LabelKeys: []string{"method", "route", "status"}, Histogram: true, Buckets: []float64{.005, .01, .05, .1, .5, 1, 2}},
		{Key: observability.MExternalRequests, Help: "external calls", LabelKeys: []string{"target", "outcome"}},
		{Key: observability.MExternalRequestDuration, Help: "external call duration seconds", LabelKeys: []string{"target", "outcome"}, Histogram: true, Buckets: []float64{.05, .1, .5, 1, 2, 5, 10}},
	})
	tel := observabilityinfra.New(oteltrace.New("paycore"), zlog, metrics)
	log := tel.Logger().With(observability.F("component", "main"))

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Error("db_connect_failed", observability.F("error", err.Error()))
		panic(err)
	}
	if err := db.AutoMigrate(gormrepo.AllModels()...); err != nil {
		log.Error("db_migrate_failed", observability.F("error", err.Error()))
		panic(err)
	}

	uow := gormrepo.NewUnitOfWork(db, cfg.LockTimeout)
	orders := gormrepo.NewOrderRepo(db)
	products := gormrepo.NewProductRepo(db)
	users := gormrepo.NewUserRepo(db)
	carts := gormrepo.NewCartRepo(db)
	paymeTxs := gormrepo.NewPaymeRepo(db)
	clickTxs := gormrepo.NewClickRepo(db)

	bus := outbox.New(cfg.OutboxWorkers, cfg.OutboxBuffer, log.With(observability.F("component", "outbox")))
	defer bus.Stop()

	orderService := apporder.NewService(apporder.Deps{
		Orders:         orders,
		Products:       products,
		Carts:          carts,
		Users:          users,
		UnitOfWork:     uow,
		Publisher:      bus,
		PaymentTimeout: cfg.OrderPaymentTimeout,
		PickupAddress:  cfg.PickupAddress,
		URLs:           cfg.PayURLs(),
		Observability:  tel,
	})

	paymeService := apppayme.NewService(apppayme.Deps{
		Transactions:   paymeTxs,
		Orders:         orders,
		Users:          users,
		Carts:          carts,
		Products:       products,
		UnitOfWork:     uow,
		OrderLifecycle: orderService,
		Publisher:      bus,
		Config:         cfg.PaymeConfig(),
		Observability:  tel,
	})

	clickService := appclick.NewService(appclick.Deps{
		Transactions: clickTxs,
		Orders:       orders,
		Users:        users,
		Carts:        carts,
		UnitOfWork:   uow,
		OrderLifecycle: orderService,
		Publisher:    bus,
		Config: appclick.Config{
			ServiceID:      cfg.ClickServiceID,
			SecretKey:      cfg.ClickSecretKey,
			PaymentTimeout: cfg.OrderPaymentTimeout,
		},
		Observability: tel,
	})

	if cfg.TelegramToken != "" {
		notifier, nerr := telegram.New(cfg.TelegramToken, users, tel)
		if nerr != nil {
			log.Warn("telegram_init_failed", observability.F("error", nerr.Error()))
		} else {
			appnotify.NewWorker(notifier, tel).Register(bus)
		}
	}

	fiscalClient := fiscal.New(cfg.FiscalURL, cfg.ClickServiceIDInt, cfg.ClickMerchantUser, cfg.ClickSecretKey, tel)
	appfiscal.NewWorker(fiscalClient, tel).Register(bus)

	reaperRunner := reaper.NewRunner(reaper.Deps{
		Orders:        orders,
		Transactions:  paymeTxs,
		UnitOfWork:    uow,
		Lifecycle:     orderService,
		Interval:      cfg.ReaperInterval,
		Threshold:     cfg.ReaperThreshold,
		Observability: tel,
	})
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go reaperRunner.Run(reaperCtx)

	handler := httpapi.NewHandler(paymeService, clickService, httpapi.Config{PaymeKey: cfg.PaymeKey}, tel)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", observability.F("error", err.Error()))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		log.Info("http_server_stopped")
	}
}
