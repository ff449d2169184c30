package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ajespoo/RoutePlanner/internal/api"
	"github.com/ajespoo/RoutePlanner/internal/config"
	"github.com/ajespoo/RoutePlanner/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	service.SetupLogging()

	app := &cli.App{
		Name:  "routeplanner-api",
		Usage: "HTTP facade over the HSL journey planner",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "listen target for the web server, overrides the configured port",
					},
					&cli.StringFlag{
						Name:    "config",
						Usage:   "path to a YAML config file",
						EnvVars: []string{"ROUTEPLANNER_CONFIG"},
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					ctx := context.Background()
					svc, err := service.Build(ctx, cfg, log.Logger)
					if err != nil {
						return err
					}
					defer svc.Close()

					webApp := api.NewApp(api.AppOptions{
						Handlers:       api.NewHandlers(svc.Adapter, svc.Checks),
						RateLimiter:    svc.RateLimiter,
						ProxyHeader:    cfg.Server.ProxyHeader,
						TrustedProxies: cfg.Server.TrustedProxies,
					})

					go func() {
						sigChan := make(chan os.Signal, 1)
						signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
						<-sigChan

						log.Info().Msg("Shutting down gracefully")
						if err := webApp.Shutdown(); err != nil {
							log.Error().Err(err).Msg("Error during shutdown")
						}
					}()

					addr := c.String("listen")
					if addr == "" {
						addr = fmt.Sprintf(":%d", cfg.Server.Port)
					}

					log.Info().
						Str("addr", addr).
						Str("resolver", cfg.Resolver.Mode).
						Str("time_zone", cfg.Planner.TimeZone).
						Msg("Server listening")

					return webApp.Listen(addr)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}
