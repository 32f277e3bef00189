package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/urfave/cli/v3"

	"github.com/iliyamo/cinema-seat-booking/internal/cache"
	"github.com/iliyamo/cinema-seat-booking/internal/config"
	"github.com/iliyamo/cinema-seat-booking/internal/handler"
	"github.com/iliyamo/cinema-seat-booking/internal/middleware"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
	"github.com/iliyamo/cinema-seat-booking/internal/reaper"
	"github.com/iliyamo/cinema-seat-booking/internal/router"
	"github.com/iliyamo/cinema-seat-booking/internal/service"
)

// serve wires the store, Redis, RabbitMQ and the reaper around the HTTP
// API and blocks until ctx is cancelled.
func serve(ctx context.Context, c *cli.Command) error {
	cfg := config.Load() // Load environment config

	store, closeDB, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	opts := []service.Option{}

	// Redis is optional: without it there is no rate limiting and no cache.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and availability cache disabled")
	} else {
		defer rdb.Close()
		if cc := config.LoadCacheConfig(); cc.Enabled {
			opts = append(opts, service.WithCache(cache.NewAvailabilityCache(rdb, cc.Prefix), cc.TTL))
		}
	}

	if cfg.Events.Enabled {
		pub := queue.NewPublisher(cfg.Events.RabbitMQURL)
		defer pub.Close()
		opts = append(opts, service.WithEvents(pub))
		if c.Bool("consumer") {
			go func() {
				err := queue.NewConsumer(cfg.Events.RabbitMQURL, cfg.Events.LogDir).Run(ctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("booking-consumer: stopped: %v", err)
				}
			}()
		}
	} else {
		opts = append(opts, service.WithEvents(queue.NopPublisher{}))
	}

	svc := service.New(store, cfg.Booking.HoldTTL, opts...)

	if cfg.Booking.ReaperEnabled {
		r := reaper.New(store, cfg.Booking.ReaperInterval)
		r.Start(ctx)
		defer r.Stop()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())

	h := handler.NewBookingHandler(svc)
	router.RegisterRoutes(e, store, h)
	router.RegisterBooking(e, h, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, hold ttl=%s)", addr, cfg.Env, svc.HoldTTL())

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Printf("shutting down")
	return e.Shutdown(shutdownCtx)
}
