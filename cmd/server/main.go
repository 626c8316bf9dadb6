package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/joho/godotenv"

	"github.com/quicktab/quicktab/internal/auth"
	"github.com/quicktab/quicktab/internal/menu"
	"github.com/quicktab/quicktab/internal/mongo"
	"github.com/quicktab/quicktab/internal/order"
	"github.com/quicktab/quicktab/internal/payment"
	"github.com/quicktab/quicktab/internal/stream"
	"github.com/quicktab/quicktab/internal/tables"
	"github.com/quicktab/quicktab/pkg"
)

const (
	appNamespace = "QUICKTAB"
	appName      = "quicktab"
	appVersion   = "0.1.0"
)

func main() {
	_ = godotenv.Load()

	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	counters := mongo.NewCounterRepo(db)
	orderRepo := mongo.NewOrderRepo(db)
	orderItemRepo := mongo.NewOrderItemRepo(db)
	tableRepo := mongo.NewTableRepo(db)
	dishRepo := mongo.NewDishRepo(db)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	bridge := stream.NewBridge(sub, logger)
	sseHandler := stream.NewSSEHandler(bridge, logger)

	authService := auth.NewService(config, logger)
	authHandler := auth.NewHandler(authService, config, logger)

	orderHandler := order.NewHandler(order.HandlerDeps{
		OrderRepo: orderRepo,
		ItemRepo:  orderItemRepo,
		DishRepo:  dishRepo,
		TableRepo: tableRepo,
		Sequencer: counters,
		Publisher: pub,
		StaffAuth: authService.Middleware,
	}, config, logger)

	tableHandler := tables.NewHandler(tables.HandlerDeps{
		Repo:      tableRepo,
		StaffAuth: authService.Middleware,
	}, config, logger)

	menuHandler := menu.NewHandler(dishRepo, logger)

	gateway := payment.NewGateway(payment.GatewayConfigFromApp(config), logger)
	paymentHandler := payment.NewHandler(gateway, orderRepo, pub, config, logger)

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	seedEnabled := config.GetStringOrDef("seeding.baseline", "")
	var seedHooks apt.LifecycleHooks
	if seedEnabled == "true" {
		logger.Info("Baseline seeding enabled")
		seeder := menu.NewSeeder(dishRepo, tableRepo, counters, logger)
		seedHooks = apt.LifecycleHooks{
			OnStart: func(context.Context) error {
				return seeder.Run(seedCtx)
			},
			OnStop: func(context.Context) error {
				cancelSeeds()
				return nil
			},
		}
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
		// Customer devices call this API straight from the menu page.
		DisableCORS: false,
	})

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		bridge,
		publisherLifecycle,
		subLifecycle,
	}
	if seedEnabled == "true" {
		lifecycles = append(lifecycles, seedHooks)
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port",
			orderHandler, tableHandler, menuHandler, paymentHandler, authHandler, sseHandler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
