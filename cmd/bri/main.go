package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/viniciusth/brindex"
)

var (
	flagDivsufsort bool
	flagNoPLCP     bool
	flagNFC        bool
	flagSpace      bool
	flagMismatch   int
	flagCheck      string
)

func main() {
	root := &cobra.Command{
		Use:           "bri",
		Short:         "bidirectional run-length compressed full-text index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	buildCmd := &cobra.Command{
		Use:   "build <input> <output-prefix>",
		Short: "build an index over a text file, writing <output-prefix>.brin",
		Args:  cobra.ExactArgs(2),
		RunE:  runBuild,
	}
	buildCmd.Flags().BoolVar(&flagDivsufsort, "divsufsort", false, "use the comparison-sort suffix array backend")
	buildCmd.Flags().BoolVar(&flagNoPLCP, "nplcp", false, "build the smaller PLCP-less variant")
	buildCmd.Flags().BoolVar(&flagNFC, "nfc", false, "NFC-normalize the input text before indexing")
	buildCmd.Flags().BoolVar(&flagSpace, "space", false, "print the space breakdown after building")

	countCmd := &cobra.Command{
		Use:   "count <index.brin> <patterns>",
		Short: "count pattern occurrences, one pattern per line",
		Args:  cobra.ExactArgs(2),
		RunE:  runCount,
	}
	countCmd.Flags().IntVarP(&flagMismatch, "mismatch", "m", 0, "max number of mismatched characters allowed")
	countCmd.Flags().BoolVar(&flagNoPLCP, "nplcp", false, "the index was built with --nplcp")

	locateCmd := &cobra.Command{
		Use:   "locate <index.brin> <patterns>",
		Short: "locate pattern occurrences, one pattern per line",
		Args:  cobra.ExactArgs(2),
		RunE:  runLocate,
	}
	locateCmd.Flags().IntVarP(&flagMismatch, "mismatch", "m", 0, "max number of mismatched characters allowed")
	locateCmd.Flags().BoolVar(&flagNoPLCP, "nplcp", false, "the index was built with --nplcp")
	locateCmd.Flags().StringVarP(&flagCheck, "check", "c", "", "verify each occurrence against this text file (must be the indexed one)")

	root.AddCommand(buildCmd, countCmd, locateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bri:", err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func runBuild(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	text, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if flagNFC {
		text = norm.NFC.Bytes(text)
	}

	b := brindex.NewBuilder(text).SAIS(!flagDivsufsort).Logger(log)
	if flagNoPLCP {
		b = b.SkipPLCP()
	}
	idx, err := b.Build()
	if err != nil {
		return err
	}
	if err := idx.Save(args[1]); err != nil {
		return err
	}
	log.Info("index written",
		zap.String("path", args[1]+".brin"),
		zap.Uint64("text_size", idx.TextSize()),
		zap.Uint64("runs", idx.NumberOfRuns(false)))

	if flagSpace {
		idx.PrintSpace(os.Stdout)
	}
	return nil
}

// readPatterns reads one pattern per line, skipping empty lines.
func readPatterns(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out [][]byte
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<24)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		p := make([]byte, len(line))
		copy(p, line)
		out = append(out, p)
	}
	return out, sc.Err()
}

func runCount(cmd *cobra.Command, args []string) error {
	idx, err := brindex.Load(args[0], flagNoPLCP)
	if err != nil {
		return err
	}
	patterns, err := readPatterns(args[1])
	if err != nil {
		return err
	}

	var tot uint64
	for _, p := range patterns {
		samples := idx.SearchWithMismatch(p, flagMismatch)
		occ := idx.CountSamples(samples)
		tot += occ
		fmt.Printf("%s\t%d\n", p, occ)
	}
	fmt.Printf("total occurrences: %d over %d patterns\n", tot, len(patterns))
	return nil
}

func runLocate(cmd *cobra.Command, args []string) error {
	idx, err := brindex.Load(args[0], flagNoPLCP)
	if err != nil {
		return err
	}
	patterns, err := readPatterns(args[1])
	if err != nil {
		return err
	}

	var check []byte
	if flagCheck != "" {
		check, err = os.ReadFile(flagCheck)
		if err != nil {
			return err
		}
	}

	var tot uint64
	for _, p := range patterns {
		samples := idx.SearchWithMismatch(p, flagMismatch)
		occs := idx.LocateSamples(samples)
		tot += uint64(len(occs))
		fmt.Printf("%s\t%d\t%v\n", p, len(occs), occs)

		for _, o := range occs {
			if check != nil && !matchesWithin(check, p, o, flagMismatch) {
				fmt.Fprintf(os.Stderr, "wrong occurrence %d for pattern %s\n", o, p)
			}
		}
	}
	fmt.Printf("total occurrences: %d over %d patterns\n", tot, len(patterns))
	return nil
}

func matchesWithin(text, pattern []byte, o uint64, allowed int) bool {
	if o+uint64(len(pattern)) > uint64(len(text)) {
		return false
	}
	mism := 0
	for i, c := range pattern {
		if text[int(o)+i] != c {
			mism++
		}
	}
	return mism <= allowed
}
