package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/internal/database"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/repository"
	"github.com/customeros/formlayer/server"
	"github.com/customeros/formlayer/services/delivery"
)

func main() {
	app := &cli.App{
		Name:  "formlayer",
		Usage: "bridge form submissions to the browser dataLayer",
		Commands: []*cli.Command{
			{
				Name:   "server",
				Usage:  "Start the application server",
				Action: runServer,
			},
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: runMigrate,
			},
			{
				Name:   "sweep",
				Usage:  "Delete expired dataLayer relay entries once and exit",
				Action: runSweep,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, cli.Exit("Config initialization failed: "+err.Error(), 1)
	}

	db, err := database.InitDatabase(cfg.DatabaseConfig)
	if err != nil {
		return nil, nil, cli.Exit("Database initialization failed: "+err.Error(), 1)
	}
	return cfg, db, nil
}

func runMigrate(c *cli.Context) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}

	if err := repository.MigrateDB(cfg.DatabaseConfig, db); err != nil {
		return cli.Exit("Database migration failed: "+err.Error(), 1)
	}
	log.Println("Database migration completed successfully")
	return nil
}

func runServer(c *cli.Context) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("formlayer starting up...")

	srv, err := server.NewServer(cfg, db)
	if err != nil {
		return cli.Exit("Server setup failed: "+err.Error(), 1)
	}

	if err := srv.Run(); err != nil {
		return cli.Exit("Server startup failed: "+err.Error(), 1)
	}

	log.Println("Shutdown complete")
	return nil
}

func runSweep(c *cli.Context) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	repos := repository.InitRepositories(db)
	svc := delivery.NewService(cfg.DataLayerConfig, appLogger, repos.OptionRepository, nil, nil)

	result, err := svc.Sweep(context.Background())
	if err != nil {
		return cli.Exit("Sweep failed: "+err.Error(), 1)
	}
	appLogger.Infof("Sweep deleted %d records and %d expired entries (%d failures)", result.Records, result.Expired, result.Failures)
	return nil
}
