package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/lightheap/heap/alloc"
	"github.com/joshuapare/lightheap/heap/printer"
	"github.com/joshuapare/lightheap/heap/verify"
	"github.com/joshuapare/lightheap/internal/region"
)

var (
	inspectBlocks  int
	inspectPayload int
	inspectUsed    bool
	inspectRepair  bool
)

func init() {
	cmd := newInspectCmd()
	cmd.Flags().IntVar(&inspectBlocks, "blocks", 0, "Limit the block map to N blocks (0 = all)")
	cmd.Flags().IntVar(&inspectPayload, "payload", 0, "Dump the first N payload bytes of used blocks")
	cmd.Flags().BoolVar(&inspectUsed, "used", false, "List used blocks only")
	cmd.Flags().BoolVar(&inspectRepair, "repair", false, "Rewrite free-list links in the image")
	rootCmd.AddCommand(cmd)
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "Validate and print an arena image",
		Long: `The inspect command validates an arena image written by a file-backed
allocator, then prints its block map and statistics. --config must name the
preset the image was written with.

The free list is rebuilt from the block chain when the image is attached.
Without --repair this happens on a private copy and the file is untouched.

Example:
  heapctl inspect arena.img
  heapctl inspect arena.img --config debug --payload 16
  heapctl inspect arena.img --repair`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
	return cmd
}

func runInspect(args []string) error {
	path := args[0]
	cfg, err := configByName(preset)
	if err != nil {
		return err
	}

	printVerbose("Mapping image: %s\n", path)
	r, err := region.MapFile(path, 0)
	if err != nil {
		return fmt.Errorf("failed to map image: %w", err)
	}
	defer r.Close()

	imageErr := verify.Image(r.Bytes(), &cfg)

	mem := r.Bytes()
	if !inspectRepair {
		mem = append([]byte(nil), mem...)
	}
	a, err := alloc.Attach(mem, &cfg)
	if err != nil {
		return fmt.Errorf("failed to attach: %w", err)
	}
	if inspectRepair {
		if err := r.Flush(); err != nil {
			return err
		}
	}

	if jsonOut {
		if err := printJSONArena(a); err != nil {
			return err
		}
	} else if !quiet {
		opts := printer.DefaultOptions()
		opts.MaxBlocks = inspectBlocks
		opts.PayloadBytes = inspectPayload
		opts.ShowFree = !inspectUsed
		opts.ShowCallers = cfg.TrackCallers
		if err := printer.New(a, os.Stdout, opts).Print(); err != nil {
			return err
		}
	}

	switch {
	case imageErr == nil:
		printResult("\nResult: ✓ VALID\n")
	case inspectRepair:
		if err := verify.AllInvariants(a); err != nil {
			return fmt.Errorf("repair failed: %w", err)
		}
		printResult("\nResult: ✓ REPAIRED (%v)\n", imageErr)
	default:
		printResult("\nResult: ✗ INVALID\n")
		return imageErr
	}
	return nil
}

// printResult prints the verdict line unless JSON output is selected.
func printResult(format string, args ...interface{}) {
	if !jsonOut {
		printInfo(format, args...)
	}
}

func printJSONArena(a *alloc.Light) error {
	opts := printer.DefaultOptions()
	opts.Format = printer.FormatJSON
	opts.MaxBlocks = inspectBlocks
	opts.PayloadBytes = inspectPayload
	opts.ShowFree = !inspectUsed
	return printer.New(a, os.Stdout, opts).Print()
}
