package migrate

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/mitchellh/cli"
	"github.com/satori/uuid"

	"github.com/komponen/marketplace/assets/migrations/pgsql_marketplace"
	"github.com/komponen/marketplace/config"
	"github.com/komponen/marketplace/pkg/logger"
	"github.com/komponen/marketplace/pkg/migration"
)

const (
	ExitSuccess = 0
	ExitErr     = -1

	migrationTable = "migration_records_marketplace"
)

type Cmd struct {
	flags      *flag.FlagSet
	configFile string
}

func NewCmd() func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{
			flags: &flag.FlagSet{},
		}
		err := cmd.init()
		return cmd, err
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd()

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet("", flag.ContinueOnError)
	c.flags.StringVar(&c.configFile, "config", "config.yml",
		"Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml",
		"Alias for config file to load")
	return nil
}

func (c *Cmd) Help() string {
	return `Usage: marketplace migrate [-c config.yml] <up|down|print>

Apply (up), roll back (down) or print the marketplace schema migrations.`
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		log.Fatalf("error parsing config argument: %s", err)
		return ExitErr
	}

	direction := "up"
	if rest := c.flags.Args(); len(rest) > 0 {
		direction = rest[0]
	}

	ctx := logger.Inject(context.Background(), logger.Tracer{
		RemoteAddr: "system",
		AppTraceID: uuid.NewV4().String(),
	})

	configVal := &config.Config{}
	zapLog, err := config.Setup(c.configFile, configVal)
	if err != nil {
		log.Fatalf("error load config: %s", err)
		return ExitErr
	}

	logger.SetGlobalLogger(logger.NewZap(zapLog))

	migrations := []migration.Migrate{
		new(pgsql_marketplace.CreateVendorsTable1674000000),
		new(pgsql_marketplace.CreateAppsTable1674000100),
		new(pgsql_marketplace.CreateInvitationsTable1674000200),
	}

	if direction == "print" {
		for _, mig := range migrations {
			fmt.Println(mig.ID(ctx))
			fmt.Println()
			fmt.Println(`-- +migrate Up`)
			up, _ := mig.Up(ctx)
			fmt.Println(up)
			fmt.Println(`-- +migrate Down`)
			down, _ := mig.Down(ctx)
			fmt.Println(down)
		}

		return ExitSuccess
	}

	dbLabel := configVal.Services.App.DBLabel
	dbConf, ok := configVal.DatabaseResources[dbLabel]
	if !ok {
		logger.Error(ctx, fmt.Sprintf("unknown database key %s", dbLabel))
		return ExitErr
	}

	if dbConf.Driver != "postgres" {
		logger.Error(ctx, fmt.Sprintf("not supported db driver '%s' on label '%s'", dbConf.Driver, dbLabel))
		return ExitErr
	}

	dbConn, err := sqlx.ConnectContext(ctx, dbConf.Driver, dbConf.Postgres.DSN)
	if err != nil {
		logger.Error(ctx, "error connect db", logger.KV("error", err))
		return ExitErr
	}

	defer func() {
		if _err := dbConn.Close(); _err != nil {
			logger.Error(ctx, "error close db", logger.KV("error", _err))
		}
	}()

	logger.Info(ctx, "trying to migrate")
	mig, err := migration.NewSQLImmigration(ctx, migration.SQLImmigrationConfig{
		Dialect:        dbConf.Driver,
		DB:             dbConn.DB,
		MigrationTable: migrationTable,
		Migrations:     migrations,
	})
	if err != nil {
		logger.Error(ctx, "prepare immigration error", logger.KV("error", err))
		return ExitErr
	}

	switch direction {
	case "up":
		err = mig.Up()
	case "down":
		err = mig.Down()
	default:
		logger.Error(ctx, fmt.Sprintf("unknown sub command direction: '%s'", direction))
		return ExitErr
	}

	if err != nil {
		logger.Error(ctx, "query db error", logger.KV("error", err))
		return ExitErr
	}

	logger.Info(ctx, "success migrate")
	return ExitSuccess
}

func (c *Cmd) Synopsis() string {
	return `Migrate the marketplace database schema`
}
