package api

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/cli"
	"github.com/satori/uuid"

	"github.com/komponen/marketplace/config"
	"github.com/komponen/marketplace/container"
	"github.com/komponen/marketplace/pkg/logger"
	"github.com/komponen/marketplace/pkg/tracer"
	"github.com/komponen/marketplace/transport/restapi"
)

const (
	ExitSuccess = 0
	ExitErr     = -1
)

type Cmd struct {
	flags      *flag.FlagSet
	appName    string
	appVersion string
	configFile string
}

func NewCmd(appName, appVersion string) func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{
			flags:      &flag.FlagSet{},
			appName:    appName,
			appVersion: appVersion,
		}
		err := cmd.init()
		return cmd, err
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd("", "")

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet("", flag.ContinueOnError)
	c.flags.StringVar(&c.configFile, "config", "config.yml",
		"Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml",
		"Alias for config file to load")
	return nil
}

func (c *Cmd) Help() string {
	return `API will start the marketplace HTTP server`
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		log.Fatalf("error parsing config argument: %s", err)
		return ExitErr
	}

	// ** define system context
	ctx := logger.Inject(context.Background(), logger.Tracer{
		RemoteAddr: "system",
		AppTraceID: uuid.NewV4().String(),
	})

	// ** load config file
	configVal := &config.Config{}
	zapLog, err := config.Setup(c.configFile, configVal)
	if err != nil {
		log.Fatalf("error load config: %s", err)
		return ExitErr
	}

	// ** set global logger
	logger.SetGlobalLogger(logger.NewZap(zapLog))

	zapLog.Info("~ logger already prepared")

	// ** set global tracer
	if !configVal.Tracing.Disable {
		exporter, _err := tracer.NewJaegerExporter(configVal.Tracing.JaegerEndpoint)
		if _err != nil {
			logger.Error(ctx, "~ error prepare jaeger exporter", logger.KV("error", _err))
			return ExitErr
		}

		tracer.InitTraceProvider(exporter)
	}

	logger.Info(ctx, "~ setup repositories")
	repos, err := container.SetupRepositories(configVal.DatabaseResources)
	if err != nil {
		logger.Error(ctx, "~ error setup repositories", logger.KV("error", err))
		return ExitErr
	}

	defer func() {
		logger.Info(ctx, "~ closing repositories")
		if _err := repos.Close(); _err != nil {
			logger.Error(ctx, "~ error close repositories", logger.KV("error", _err))
		}
	}()

	logger.Info(ctx, "~ setup services")
	services, err := container.SetupServices(ctx, configVal, repos)
	if err != nil {
		logger.Error(ctx, "~ error setup services", logger.KV("error", err))
		return ExitErr
	}

	defer func() {
		logger.Info(ctx, "~ closing services")
		if _err := services.Close(); _err != nil {
			logger.Error(ctx, "~ error close services", logger.KV("error", _err))
		}
	}()

	// ** HTTP TRANSPORT
	serverConfig := restapi.Config{
		AppServiceName: c.appName,
		AppVersion:     c.appVersion,
		AppService:     services.App(),
		IconService:    services.Icon(),
		VendorService:  services.Vendor(),
		AuthService:    services.Auth(),
		Pool:           services.Pool(),
		IconBucket:     configVal.ObjectStore.Bucket,
	}

	logger.Info(ctx, "~ prepare http transport")
	server, err := restapi.NewHTTPTransport(serverConfig)
	if err != nil {
		logger.Error(ctx, "~ prepare http transport error", logger.KV("error", err))
		return ExitErr
	}

	httpPort := fmt.Sprintf(":%d", configVal.Transport.HTTP.Port)
	logger.Debug(ctx, fmt.Sprintf("~ http transport is up on port %s", httpPort))

	httpServer := &http.Server{
		Addr:    httpPort,
		Handler: server.Server(),
	}

	var apiErrChan = make(chan error, 1)
	go func() {
		apiErrChan <- httpServer.ListenAndServe()
	}()

	// ** listen for sigterm signal
	var signalChan = make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-signalChan:
		logger.Info(ctx, "exiting http server")
		if _err := httpServer.Shutdown(ctx); _err != nil {
			logger.Error(ctx, "error shutdown", logger.KV("error", _err))
		}

	case err := <-apiErrChan:
		if err != nil {
			logger.Info(ctx, "error HTTP API", logger.KV("error", err))
		}
	}

	return ExitSuccess
}

func (c *Cmd) Synopsis() string {
	return `API will start the marketplace HTTP server`
}
