// Package cmd provides the command line interface for the application.
package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"cpuprobe/internal/affinity"
	"cpuprobe/internal/cache"
	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/frequency"
	"cpuprobe/internal/inventory"
	"cpuprobe/internal/report"
	"cpuprobe/internal/topology"
)

// AppName is the name of the application
const AppName = "cpuprobe"

var gVersion = "9.9.9" // overwritten by ldflags in Makefile

var examples = []string{
	fmt.Sprintf("  Emit the topology snapshot:          $ %s", AppName),
	fmt.Sprintf("  Indented output for reading:         $ %s --pretty", AppName),
	fmt.Sprintf("  Human-readable summary:              $ %s --format txt", AppName),
}

var rootCmd = &cobra.Command{
	Use:     AppName,
	Short:   AppName,
	Long:    fmt.Sprintf(`%s probes the processor's identification instruction and per-thread affinity to map core topology, cache hierarchy, and clock frequencies, then writes one snapshot document to standard output.`, AppName),
	Example: strings.Join(examples, "\n"),
	Version: gVersion,
	RunE:    runProbe,
}

var (
	// logging
	flagDebug bool
	// output
	flagPretty bool
	flagFormat string
)

const (
	flagDebugName  = "debug"
	flagPrettyName = "pretty"
	flagFormatName = "format"

	formatJSON = "json"
	formatText = "txt"
)

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{}) // block the help command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.Flags().BoolVar(&flagDebug, flagDebugName, false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagPretty, flagPrettyName, false, "indent the output document")
	rootCmd.Flags().StringVar(&flagFormat, flagFormatName, formatJSON, "output format: json or txt")
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	cobra.EnableCaseInsensitive = true
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initializeLogging configures slog on stderr; stdout carries the document.
func initializeLogging() {
	var logOpts slog.HandlerOptions
	if flagDebug {
		logOpts.Level = slog.LevelDebug
		logOpts.AddSource = true
	} else {
		logOpts.Level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &logOpts)))
}

func runProbe(cmd *cobra.Command, args []string) error {
	initializeLogging()
	if flagFormat != formatJSON && flagFormat != formatText {
		return fmt.Errorf("unknown format: %s", flagFormat)
	}
	slog.Info("Starting up", slog.String("app", AppName), slog.String("version", gVersion), slog.Int("PID", os.Getpid()))
	cmd.Flags().Visit(func(f *pflag.Flag) {
		slog.Debug("flag", slog.String("name", f.Name), slog.String("value", f.Value.String()))
	})
	start := time.Now()

	src := cpuid.HardwareSource{}
	inv := inventory.OSReader{}
	snap := probe(src, inv, affinity.NewOSPinner())

	if len(snap.Cores) == 0 {
		fmt.Fprintf(os.Stderr, "%s: no logical processors enumerated; emitting partial snapshot\n", AppName)
	}
	slog.Debug("probe complete", slog.Int("cores", len(snap.Cores)), slog.Duration("elapsed", time.Since(start)))

	var out []byte
	var err error
	switch flagFormat {
	case formatText:
		out = report.RenderSummary(snap)
	default:
		pretty := flagPretty || term.IsTerminal(int(os.Stdout.Fd()))
		out, err = report.Render(snap, pretty)
		if err != nil {
			return fmt.Errorf("serializing snapshot: %w", err)
		}
		out = append(out, '\n')
	}
	_, err = os.Stdout.Write(out)
	return err
}

// probe runs the pipeline: vendor identification feeds cache detection and
// core-type classification, the frequency chain runs independently, and the
// affinity walk (which needs the cache sharing counts) feeds the group
// deriver.
func probe(src cpuid.Source, inv inventory.Reader, pinner affinity.Pinner) report.Snapshot {
	vendor, vendorString := cpuid.VendorOf(src)
	family, model, stepping := cpuid.Signature(src)
	slog.Debug("identified processor",
		slog.String("vendor", vendorString),
		slog.Int("family", family), slog.Int("model", model), slog.Int("stepping", stepping))

	caches := cache.Detect(src, vendor)

	count, err := inv.LogicalCount()
	if err != nil {
		slog.Debug("logical processor count", slog.String("error", err.Error()))
	}
	cores := topology.Walk(src, pinner, count)
	groups := cache.DeriveGroups(topology.APICIDs(cores), caches)

	return report.Snapshot{
		Vendor:       vendor,
		VendorString: vendorString,
		Brand:        cpuid.BrandString(src),
		MaxLeaf:      cpuid.MaxLeaf(src),
		Family:       family,
		Model:        model,
		Stepping:     stepping,
		Caches:       caches,
		Cores:        cores,
		Groups:       groups,
		Frequency:    frequency.Resolve(src, inv),
	}
}
