package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/app"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Address cache maintenance",
}

var cacheInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the cache schema for sqlite or postgres backends",
	RunE:  runCacheInit,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cache entries older than the TTL",
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cacheInitCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheInit(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Cache.Backend != config.BackendSQLite && cfg.Cache.Backend != config.BackendPostgres {
		fmt.Fprintf(cmd.OutOrStdout(), "backend %s needs no schema\n", cfg.Cache.Backend)
		return nil
	}

	// Opening a SQL store creates its schema.
	_, closeStore, err := app.OpenStore(cmd.Context(), cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeStore()

	fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", cfg.Cache.Backend)
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, closeStore, err := app.OpenStore(cmd.Context(), cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if store == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "memory backend: nothing to purge")
		return nil
	}

	cutoff := time.Now().Add(-cfg.Cache.TTL)
	n, err := store.PurgeBefore(cmd.Context(), cutoff)
	if err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries cached before %s\n", n, cutoff.Format(time.RFC3339))
	return nil
}
