// Command server runs the cinema seat booking service and its maintenance
// tasks.
//
//	server serve     HTTP API with the expiry reaper and, optionally, the event consumer
//	server reap      delete expired seat holds once and exit
//	server consume   append booking events from RabbitMQ to the booking log
//	server migrate   apply the embedded MySQL schema
//	server token     print a development access token for a user id
package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log" // Logging library
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/iliyamo/cinema-seat-booking/internal/config"
	"github.com/iliyamo/cinema-seat-booking/internal/database"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
	"github.com/iliyamo/cinema-seat-booking/internal/reaper"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
	"github.com/iliyamo/cinema-seat-booking/internal/utils"
)

func main() {
	// .env is optional; real environments set variables directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: loading .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err) // Log and exit if a command fails
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "cinema seat booking service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "consumer",
						Usage:   "also run the booking event consumer in this process",
						Sources: cli.EnvVars("RUN_CONSUMER"),
					},
				},
				Action: serve,
			},
			{
				Name:   "reap",
				Usage:  "delete expired seat holds once",
				Action: reapOnce,
			},
			{
				Name:   "consume",
				Usage:  "write booking events to the booking log",
				Action: consume,
			},
			{
				Name:   "migrate",
				Usage:  "create the booking tables",
				Action: migrate,
			},
			{
				Name:  "token",
				Usage: "print an access token for a user id",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "user", Usage: "user id (token subject)", Required: true},
					&cli.StringFlag{Name: "secret", Usage: "signing secret", Sources: cli.EnvVars("JWT_SECRET"), Required: true},
					&cli.DurationFlag{Name: "ttl", Usage: "token lifetime (default ACCESS_TOKEN_TTL_MIN minutes)"},
				},
				Action: token,
			},
		},
		DefaultCommand: "serve",
	}
}

func openDB() (*repository.MySQLStore, func(), error) {
	dbc := config.LoadDatabase()
	db, err := database.Open(dbc.User, dbc.Pass, dbc.Host, dbc.Port, dbc.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mysql: %w", err)
	}
	return repository.NewMySQLStore(db), func() { _ = db.Close() }, nil
}

func reapOnce(ctx context.Context, _ *cli.Command) error {
	store, closeDB, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB()
	n, err := reaper.New(store, config.LoadBooking().ReaperInterval).Sweep(ctx)
	if err != nil {
		return err
	}
	log.Printf("reaper: removed %d expired holds", n)
	return nil
}

func consume(ctx context.Context, _ *cli.Command) error {
	ev := config.LoadEvents()
	log.Printf("booking-consumer: writing to %s", ev.LogDir)
	err := queue.NewConsumer(ev.RabbitMQURL, ev.LogDir).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func migrate(ctx context.Context, _ *cli.Command) error {
	dbc := config.LoadDatabase()
	db, err := database.Open(dbc.User, dbc.Pass, dbc.Host, dbc.Port, dbc.Name)
	if err != nil {
		return fmt.Errorf("connect mysql: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	log.Printf("schema applied to %s", dbc.Name)
	return nil
}

func token(_ context.Context, c *cli.Command) error {
	ttlMin := config.AccessTTLMin()
	if c.IsSet("ttl") {
		ttl := c.Duration("ttl")
		if ttl < time.Minute {
			return fmt.Errorf("ttl must be at least one minute")
		}
		ttlMin = int(ttl / time.Minute)
	}
	tok, err := utils.NewAccessToken(c.String("secret"), c.Uint64("user"), ttlMin)
	if err != nil {
		return err
	}
	fmt.Println(tok.Token)
	return nil
}
