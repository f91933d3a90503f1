package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/adapters/repositories"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/api/dto"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/app"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/config"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/services"
)

var solveOpts struct {
	orders   string
	date     string
	maxStops int
	offline  bool
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a dispatch batch from a JSON order file and print the plan",
	RunE:  runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVarP(&solveOpts.orders, "orders", "o", "", "JSON file with the order batch")
	f.StringVar(&solveOpts.date, "date", "", "delivery date YYYY-MM-DD (default today)")
	f.IntVar(&solveOpts.maxStops, "max-stops", 0, "override dispatch.max_stops")
	f.BoolVar(&solveOpts.offline, "offline", false, "approximate every address instead of calling the geocoder")
	_ = solveCmd.MarkFlagRequired("orders")

	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if solveOpts.offline {
		cfg.Geocoder.Provider = config.ProviderOffline
	}
	if solveOpts.maxStops != 0 {
		cfg.Dispatch.MaxStops = solveOpts.maxStops
	}

	orders, err := repositories.NewJSONOrderFile(solveOpts.orders).ListOrders(ctx)
	if err != nil {
		return err
	}

	day := time.Now()
	if solveOpts.date != "" {
		if day, err = time.ParseInLocation(time.DateOnly, solveOpts.date, time.Local); err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
	}
	route, err := cfg.Dispatch.Route(day)
	if err != nil {
		return err
	}
	fleet, err := cfg.ResolveFleet()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("address cache flush failed")
		}
	}()

	plan, err := a.Solver.Solve(ctx, services.SolveRequest{
		Orders:   orders,
		Depot:    cfg.PrimaryDepot(),
		Fleet:    fleet,
		MaxStops: cfg.Dispatch.MaxStops,
		Route:    route,
		Progress: func(p services.Progress) {
			log.Debug().Str("step", string(p.Step)).Float64("percent", p.Percent).Msg("progress")
		},
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(dto.NewPlanResponse(plan))
}
