package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/lightheap/heap/alloc"
	"github.com/joshuapare/lightheap/heap/diag"
	"github.com/joshuapare/lightheap/heap/printer"
	"github.com/joshuapare/lightheap/heap/verify"
	"github.com/joshuapare/lightheap/internal/region"
)

var (
	stressSize    int
	stressOps     int
	stressMaxSize int
	stressSeed    int64
	stressEvery   int
	stressShift   int
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressSize, "size", 1<<20, "Arena size in bytes")
	cmd.Flags().IntVar(&stressOps, "ops", 100000, "Number of operations")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 512, "Largest request size")
	cmd.Flags().Int64Var(&stressSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&stressEvery, "check-every", 1000, "Verify invariants every N operations (0 = only at the end)")
	cmd.Flags().IntVar(&stressShift, "shift", -1, "Override ReuseThresholdShift (-1 keeps the preset)")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run a randomized workload and verify arena invariants",
		Long: `The stress command drives an arena with a seeded mix of allocations,
frees and resizes, verifying the block chain and free list as it goes.

Example:
  heapctl stress
  heapctl stress --ops 1000000 --seed 7 --config debug
  heapctl stress --shift 0 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	return cmd
}

// StressResult summarizes a stress run.
type StressResult struct {
	Ops      int             `json:"ops"`
	Checks   int             `json:"checks"`
	OOM      int             `json:"oom"`
	Elapsed  time.Duration   `json:"elapsed"`
	Stats    alloc.Stats     `json:"stats"`
	Summary  printer.Summary `json:"summary"`
	Verified bool            `json:"verified"`
}

// Stress runs n seeded operations against a, checking invariants every
// `every` operations and once at the end.
func Stress(a *alloc.Light, rng *rand.Rand, n, maxSize, every int) (*StressResult, error) {
	res := &StressResult{}
	var live []alloc.Ptr
	start := time.Now()

	for i := 0; i < n; i++ {
		res.Ops++
		var err error
		switch op := rng.Intn(10); {
		case op < 5 || len(live) == 0:
			var p alloc.Ptr
			p, _, err = a.Alloc(rng.Intn(maxSize+1), 0)
			if err == nil {
				live = append(live, p)
			}
		case op < 8:
			j := rng.Intn(len(live))
			err = a.Free(live[j])
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
		default:
			j := rng.Intn(len(live))
			var q alloc.Ptr
			q, _, err = a.Resize(live[j], 1+rng.Intn(maxSize))
			if err == nil {
				live[j] = q
			}
		}

		if err != nil {
			if !errors.Is(err, alloc.ErrOutOfMemory) {
				return res, fmt.Errorf("operation %d: %w", i, err)
			}
			res.OOM++
		}
		if every > 0 && (i+1)%every == 0 {
			res.Checks++
			if err := verify.AllInvariants(a); err != nil {
				return res, fmt.Errorf("operation %d: %w", i, err)
			}
		}
	}

	res.Checks++
	if err := verify.AllInvariants(a); err != nil {
		return res, err
	}
	res.Elapsed = time.Since(start)
	res.Stats = a.Stats()
	res.Summary = printer.Summarize(a)
	res.Verified = true
	return res, nil
}

func runStress() error {
	cfg, err := configByName(preset)
	if err != nil {
		return err
	}
	if stressShift >= 0 {
		cfg.ReuseThresholdShift = uint(stressShift)
	}
	cfg.ReportEvery = max(stressOps/10, 1)
	cfg.Hook = diag.NewLogHook(logger, diag.Per(diag.DefaultEventsPerSecond, time.Second), diag.DefaultBurst)

	r, err := region.Anonymous(stressSize)
	if err != nil {
		return err
	}
	defer r.Close()

	a, err := alloc.New(r.Bytes(), &cfg)
	if err != nil {
		return err
	}

	printVerbose("Stressing %d byte arena [%s], seed %d\n", stressSize, cfg.Name, stressSeed)
	res, err := Stress(a, rand.New(rand.NewSource(stressSeed)), stressOps, stressMaxSize, stressEvery)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(res)
	}
	printInfo("%d operations in %v, %d invariant checks passed, %d out-of-memory\n",
		res.Ops, res.Elapsed.Round(time.Millisecond), res.Checks, res.OOM)
	if !quiet && cfg.EnableStatistics {
		printer.New(a, os.Stdout, printer.DefaultOptions()).PrintStats()
	}
	return nil
}
