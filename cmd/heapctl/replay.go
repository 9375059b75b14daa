package main

import (
	"fmt"
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
	replaySize  int
	replayImage string
	replayMap   bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().IntVar(&replaySize, "size", 64<<10, "Arena size in bytes")
	cmd.Flags().StringVar(&replayImage, "image", "", "Back the arena with this file and keep it afterwards")
	cmd.Flags().BoolVar(&replayMap, "map", false, "Print the block map after the run")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script>",
		Short: "Run an allocation script against a fresh arena",
		Long: `The replay command executes a script of allocator operations, one per line:

  alloc  <name> <size>
  calloc <name> <count> <elemSize>
  free   <name>
  resize <name> <size>
  check              verify every arena invariant
  expect oom         the previous operation must have run out of memory

Example:
  heapctl replay workload.txt
  heapctl replay workload.txt --size 4096 --config minimal --map
  heapctl replay workload.txt --image arena.img`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	return cmd
}

func runReplay(args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	ops, err := ParseScript(f)
	f.Close()
	if err != nil {
		return err
	}
	printVerbose("Parsed %d operations\n", len(ops))

	cfg, err := configByName(preset)
	if err != nil {
		return err
	}
	rec := &diag.Recorder{}
	cfg.Hook = diag.Tee(rec, diag.NewLogHook(logger, diag.Per(diag.DefaultEventsPerSecond, time.Second), diag.DefaultBurst))

	r, err := openRegion(replayImage, replaySize)
	if err != nil {
		return err
	}
	defer r.Close()

	a, err := alloc.New(r.Bytes(), &cfg)
	if err != nil {
		return err
	}

	res, runErr := Replay(a, ops)
	if err := r.Flush(); err != nil {
		return err
	}

	if jsonOut {
		out := map[string]interface{}{
			"result": res,
			"stats":  a.Stats(),
			"events": len(rec.Events()),
			"valid":  verify.AllInvariants(a) == nil,
		}
		if runErr != nil {
			out["error"] = runErr.Error()
		}
		if err := printJSON(out); err != nil {
			return err
		}
		return runErr
	}

	printInfo("Replayed %d operations (%d failed allocations, %d live blocks)\n",
		res.Ops, res.Failed, len(res.Live))
	if replayMap && !quiet {
		opts := printer.DefaultOptions()
		opts.ShowCallers = cfg.TrackCallers
		if err := printer.New(a, os.Stdout, opts).Print(); err != nil {
			return err
		}
	}
	return runErr
}

// openRegion returns a file-backed region when path is set, else an
// anonymous mapping.
func openRegion(path string, size int) (*region.Region, error) {
	if path != "" {
		printVerbose("Mapping %s (%d bytes)\n", path, size)
		return region.MapFile(path, size)
	}
	return region.Anonymous(size)
}
