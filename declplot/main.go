// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command declplot renders declarative chart configurations to SVG.
//
// Usage:
//
//	declplot render -c chart.yaml -o chart.svg
//	declplot validate -c chart.yaml
//	declplot data -c chart.yaml
//	declplot names
//
// Monitoring API settings are read from the file given by --settings
// and then overridden by DECLPLOT_* environment variables.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
	"github.com/spf13/cobra"

	"github.com/declplot/declplot/chart"
	"github.com/declplot/declplot/config"
	"github.com/declplot/declplot/internal/logging"
	"github.com/declplot/declplot/monitor"
	"github.com/declplot/declplot/series"
)

var (
	flagConfig   string
	flagSettings string
	flagLogLevel string
	flagOutput   string
	flagParallel int
	flagWatch    bool

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "declplot",
	Short:         "Render declarative charts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		logger = logging.New(os.Stderr, level)
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a chart to SVG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadChart()
		if err != nil {
			return err
		}
		out := flagOutput
		if out == "" {
			out = trimExt(flagConfig) + ".svg"
		}
		if err := render(cmd.Context(), c, out); err != nil {
			return err
		}
		if flagWatch {
			return watch(cmd.Context(), c, out)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a chart configuration without fetching data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadChart()
		if err != nil {
			return err
		}
		fmt.Printf("%s: ok, %d panels\n", flagConfig, c.NumPanels())
		return nil
	},
}

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Print the resolved data of every series",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadChart()
		if err != nil {
			return err
		}
		results, err := c.Resolve(cmd.Context())
		if err != nil {
			return err
		}
		for _, panel := range results {
			for _, r := range panel {
				fmt.Printf("# panel %d series %d: %s\n", r.Panel, r.Index, r.Spec.ID())
				if err := table.Fprint(os.Stdout, dataTable(r.Data)); err != nil {
					return err
				}
				fmt.Println()
			}
		}
		return nil
	},
}

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List the supported monitoring API series names",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range monitor.SortedNames() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log `level`: debug, info, warn, or error")
	for _, cmd := range []*cobra.Command{renderCmd, validateCmd, dataCmd} {
		cmd.Flags().StringVarP(&flagConfig, "config", "c", "", "chart configuration `file`")
		cmd.Flags().StringVar(&flagSettings, "settings", "", "monitoring API settings `file`")
		cmd.MarkFlagRequired("config")
	}
	renderCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output SVG `file` (default config name with .svg)")
	renderCmd.Flags().IntVar(&flagParallel, "parallel", 0, "resolve up to `n` series concurrently")
	renderCmd.Flags().BoolVar(&flagWatch, "watch", false, "re-render when the configuration or its data files change")
	rootCmd.AddCommand(renderCmd, validateCmd, dataCmd, namesCmd)
}

func main() {
	log.SetPrefix("declplot: ")
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func loadSettings() (config.Settings, error) {
	s := config.Default()
	if flagSettings != "" {
		var err error
		if s, err = config.Load(flagSettings); err != nil {
			return s, err
		}
	}
	if err := s.FromEnv(); err != nil {
		return s, err
	}
	return s, s.Validate()
}

func loadChart() (*chart.Chart, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	cfg, err := chart.LoadFile(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagParallel > 0 {
		cfg.Parallel = flagParallel
	}
	return chart.New(cfg,
		chart.WithSettings(settings),
		chart.WithDir(filepath.Dir(flagConfig)),
		chart.WithLogger(logger))
}

func render(ctx context.Context, c *chart.Chart, out string) error {
	if err := c.Render(ctx); err != nil {
		return err
	}
	if err := c.Save(out); err != nil {
		return err
	}
	logger.Info("wrote chart", "file", out, "panels", c.NumPanels())
	return nil
}

// dataTable builds a table of d's fields, truncated to its shortest
// field.
func dataTable(d series.PlotData) *table.Table {
	n := d.Rows()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var b table.Builder
	for i, col := range d {
		if col == nil {
			col = []float64{}
		}
		b.Add(fmt.Sprintf("field%d", i), slice.Select(col, idx))
	}
	return b.Done()
}

func trimExt(path string) string {
	return path[:len(path)-len(filepath.Ext(path))]
}
