// ════════════════════════════════════════════════════════════════════════════════════════════════
// Cuckatoo Miner Core - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Cuckatoo-cycle CPU search
// Component: Command line & System Orchestration
//
// Description:
//   Phased startup around the search core: configuration → worker pool and trimmer →
//   memory consolidation → attempt loop until the source runs dry or an interrupt arrives.
//
// Commands:
//   - bench:  drive the reference CPU trimmer and the search over consecutive nonces
//   - verify: check a proof against a header and nonce
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"encoding/hex"
	"os"
	"runtime"
	rtdebug "runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cuckminer/config"
	"cuckminer/control"
	"cuckminer/coordinator"
	"cuckminer/cycle"
	"cuckminer/debug"
	"cuckminer/metrics"
	"cuckminer/pipeline"
	"cuckminer/report"
	"cuckminer/siphash"
	"cuckminer/store"
	"cuckminer/trim"
	"cuckminer/utils"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// COMMAND TREE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "cuckminer",
		Short:         "Cuckatoo-cycle CPU search core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	root.AddCommand(benchCommand(), verifyCommand())

	if err := root.Execute(); err != nil {
		debug.DropFatal("cuckminer", err)
	}
}

// benchOptions are the bench command's flags.
type benchOptions struct {
	edgeBits    uint
	cycleLength int
	attempts    int
	rounds      int
	mode        string
	header      string
	height      uint64
	startNonce  uint64
	json        bool
}

func benchCommand() *cobra.Command {
	var o benchOptions
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Trim and search consecutive nonces with the CPU reference trimmer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("edge-bits") {
				cfg.EdgeBits = o.edgeBits
			}
			if cmd.Flags().Changed("cycle-length") {
				cfg.CycleLength = o.cycleLength
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBench(cmd.Context(), cfg, o)
		},
	}
	f := cmd.Flags()
	f.UintVar(&o.edgeBits, "edge-bits", 20, "log2 of the edge space (reduced graphs for CPU trimming)")
	f.IntVar(&o.cycleLength, "cycle-length", 42, "exact cycle length")
	f.IntVar(&o.attempts, "attempts", 16, "nonces to try (0 = until interrupted)")
	f.IntVar(&o.rounds, "rounds", 40, "trimming rounds per attempt")
	f.StringVar(&o.mode, "mode", "bitmap", "trimmer output form: bitmap or edges")
	f.StringVar(&o.header, "header", "", "hex block header (default: zero header)")
	f.Uint64Var(&o.height, "height", 0, "height reported with each attempt")
	f.Uint64Var(&o.startNonce, "nonce", 0, "first nonce")
	f.BoolVar(&o.json, "json", true, "write solutions as JSON lines to stdout")
	return cmd
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// BENCH ORCHESTRATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func runBench(ctx context.Context, cfg config.Config, o benchOptions) error {
	// PHASE 0: Inputs
	header, err := decodeHeader(o.header)
	if err != nil {
		return err
	}
	mode := trim.ModeBitmap
	if o.mode == "edges" {
		mode = trim.ModeEdges
	}

	// PHASE 1: Persistent infrastructure
	coord, err := coordinator.New(cfg)
	if err != nil {
		debug.DropFatal("POOL", err)
	}
	defer coord.Close()

	trimmer := trim.NewLean(cfg.EdgeBits, o.rounds, mode)
	releaseTrimmer := control.Track(trimmer.Close)
	defer releaseTrimmer()

	sinks := report.Multi{}
	if o.json {
		sinks = append(sinks, report.NewWriter(os.Stdout))
	}
	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		releaseStore := control.Track(func() {
			if err := st.Close(); err != nil {
				debug.DropError("STORE", err)
			}
		})
		defer releaseStore()
		debug.DropMessage("STORE", cfg.DBPath+" run "+st.RunID())
		sinks = append(sinks, st)
	}
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				debug.DropError("METRICS", err)
			}
		}()
	}

	stop := control.NotifyOnInterrupt(func() {
		debug.DropMessage("SHUTDOWN", "trimmer and store drained")
	})
	defer stop()

	// PHASE 2: Memory consolidation before the attempt loop
	runtime.GC()
	rtdebug.FreeOSMemory()

	// PHASE 3: Attempt loop
	p := &pipeline.Pipeline{
		Source: &pipeline.NonceSource{
			Header: header,
			Height: o.height,
			Start:  o.startNonce,
			Count:  o.attempts,
		},
		Trimmer:     trimmer,
		Search:      coord,
		Sink:        sinks,
		Verify:      true,
		EdgeBits:    cfg.EdgeBits,
		CycleLength: cfg.CycleLength,
	}
	start := time.Now()
	sum, err := p.Run(ctx)
	elapsed := time.Since(start)
	releaseTrimmer()
	debug.DropMessage("BENCH", utils.Itoa(sum.Attempts)+" attempts, "+utils.Itoa(sum.Solved)+" solved, "+
		utils.Itoa(sum.Rejected)+" rejected in "+elapsed.Round(time.Millisecond).String())
	return err
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// VERIFY
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func verifyCommand() *cobra.Command {
	var (
		hdr         string
		nonce       uint32
		edgeBits    uint
		cycleLength int
	)
	cmd := &cobra.Command{
		Use:   "verify [indices...]",
		Short: "Verify a proof (comma or space separated edge indices)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			header, err := decodeHeader(hdr)
			if err != nil {
				return err
			}
			proof, err := parseIndices(args)
			if err != nil {
				return err
			}
			keys := siphash.KeysFromHeader(header, nonce)
			if err := cycle.Verify(&keys, proof, edgeBits, cycleLength); err != nil {
				return err
			}
			utils.PrintInfo("OK\n")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&hdr, "header", "", "hex block header")
	f.Uint32Var(&nonce, "nonce", 0, "nonce")
	f.UintVar(&edgeBits, "edge-bits", 32, "log2 of the edge space")
	f.IntVar(&cycleLength, "cycle-length", 42, "exact cycle length")
	return cmd
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// INPUT HELPERS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// decodeHeader parses a hex header; empty means an all-zero 32-byte header.
func decodeHeader(s string) ([]byte, error) {
	if s == "" {
		return make([]byte, 32), nil
	}
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// parseIndices accepts indices split across args and/or commas.
func parseIndices(args []string) ([]uint32, error) {
	var out []uint32
	for _, a := range args {
		for _, p := range strings.Split(a, ",") {
			if p == "" {
				continue
			}
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
			if err != nil {
				return nil, err
			}
			out = append(out, uint32(v))
		}
	}
	return out, nil
}
