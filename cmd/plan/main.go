package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ajespoo/RoutePlanner/internal/config"
	"github.com/ajespoo/RoutePlanner/internal/planner"
	"github.com/ajespoo/RoutePlanner/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	service.SetupLogging()

	configFlag := &cli.StringFlag{
		Name:    "config",
		Usage:   "path to a YAML config file",
		EnvVars: []string{"ROUTEPLANNER_CONFIG"},
	}

	app := &cli.App{
		Name:  "routeplanner",
		Usage: "plan HSL journeys from the command line",
		Commands: []*cli.Command{
			{
				Name:  "plan",
				Usage: "plan a journey arriving by a given time",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{Name: "from", Usage: "origin stop name"},
					&cli.StringFlag{Name: "to", Usage: "destination stop name"},
					&cli.StringFlag{Name: "arrival", Usage: "arrival time as YYYYMMDDhhmmss"},
					&cli.StringFlag{Name: "tomorrow", Usage: "arrival time tomorrow as HH:MM, used when --arrival is empty"},
				},
				Action: func(c *cli.Context) error {
					svc, err := build(c)
					if err != nil {
						return err
					}
					defer svc.Close()

					arrival := c.String("arrival")
					if arrival == "" && c.String("tomorrow") != "" {
						arrival, err = tomorrowAt(c.String("tomorrow"), svc.Adapter.Location(), time.Now())
						if err != nil {
							return err
						}
					}

					result := svc.Adapter.Plan(c.Context, planner.Request{
						FromStop:    c.String("from"),
						ToStop:      c.String("to"),
						ArrivalTime: arrival,
					})

					if err := printJSON(result.Body()); err != nil {
						return err
					}
					if result.IsError() {
						return cli.Exit("", 1)
					}
					return nil
				},
			},
			{
				Name:      "stops",
				Usage:     "search stops by name",
				ArgsUsage: "<query>",
				Flags:     []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					svc, err := build(c)
					if err != nil {
						return err
					}
					defer svc.Close()

					result, planErr := svc.Adapter.SearchStops(c.Context, c.Args().First())
					if planErr != nil {
						if err := printJSON(planErr); err != nil {
							return err
						}
						return cli.Exit("", 1)
					}
					return printJSON(result)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func build(c *cli.Context) (*service.Service, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	return service.Build(context.Background(), cfg, log.Logger)
}

// tomorrowAt renders HH:MM on the day after now in loc as an arrival value
func tomorrowAt(hhmm string, loc *time.Location, now time.Time) (string, error) {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid --tomorrow value %q, expected HH:MM", hhmm)
	}

	day := now.In(loc).AddDate(0, 0, 1)
	t := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	return t.Format(planner.ArrivalLayout), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
