package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/joho/godotenv"

	"github.com/quicktab/quicktab/internal/client"
	"github.com/quicktab/quicktab/internal/portal"
)

const (
	appNamespace = "QUICKTAB_PORTAL"
	appName      = "quicktab-portal"
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

	apiURL := config.GetStringOrDef("services.api.url", "http://localhost:8080")
	api := client.New(apiURL, logger)

	username := config.GetStringOrDef("auth.staff.username", "staff")
	password := config.GetStringOrDef("auth.staff.password", "")
	if password == "" {
		log.Fatalf("%s(%s) staff password is not configured", appName, appVersion)
	}
	if _, err := api.Login(ctx, username, password); err != nil {
		log.Fatalf("%s(%s) cannot login to ordering API: %v", appName, appVersion, err)
	}

	kitchenView := portal.NewKitchenView(api, logger)
	serviceView := portal.NewServiceView(api, logger)
	handler := portal.NewHandler(kitchenView, serviceView, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Staff tablets hit the portal directly
	})

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(kitchenView, serviceView),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
