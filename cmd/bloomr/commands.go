package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/jcalabro/bloomr"
)

// errKeysAbsent is returned by check --strict when any key is absent.
var errKeysAbsent = errors.New("one or more keys are absent")

var (
	createCommand = &cli.Command{
		Name:      "create",
		Usage:     "Creates an empty filter file",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{sizeFlag, hashesFlag, hashFlag, forceFlag},
		Action:    createFilter,
	}
	addCommand = &cli.Command{
		Name:      "add",
		Usage:     "Adds keys to a filter file",
		ArgsUsage: "<file> [key...]",
		Flags:     []cli.Flag{inputFlag, warnFillFlag},
		Action:    addKeys,
	}
	checkCommand = &cli.Command{
		Name:      "check",
		Usage:     "Reports whether keys might be in a filter file",
		ArgsUsage: "<file> [key...]",
		Flags:     []cli.Flag{inputFlag, strictFlag},
		Action:    checkKeys,
	}
	statsCommand = &cli.Command{
		Name:      "stats",
		Usage:     "Prints a summary of a filter file",
		ArgsUsage: "<file>",
		Action:    printStats,
	}
	clearCommand = &cli.Command{
		Name:      "clear",
		Usage:     "Resets every bit of a filter file, keeping its counters",
		ArgsUsage: "<file>",
		Action:    clearFilter,
	}
)

func filterPath(ctx *cli.Context) (string, error) {
	if ctx.Args().Len() < 1 {
		return "", errors.New("missing filter file argument")
	}
	return ctx.Args().First(), nil
}

func createFilter(ctx *cli.Context) error {
	path, err := filterPath(ctx)
	if err != nil {
		return err
	}
	if ctx.Args().Len() > 1 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(ctx.Args().Tail(), " "))
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	family, err := bloomr.ParseHashFamily(cfg.Filter.Hash)
	if err != nil {
		return err
	}

	if !ctx.Bool(forceFlag.Name) {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --%s to overwrite)", path, forceFlag.Name)
		}
	}

	f, err := bloomr.New(cfg.Filter.Size, cfg.Filter.Hashes, bloomr.WithHashFamily(family))
	if err != nil {
		return err
	}
	if err := f.SaveAtomic(path); err != nil {
		return err
	}
	slog.Info("Created filter", "path", path, "bits", f.Cap(), "hashes", f.K(), "hash", f.HashFamily())
	return nil
}

func addKeys(ctx *cli.Context) error {
	path, err := filterPath(ctx)
	if err != nil {
		return err
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	keys, err := readKeys(ctx)
	if err != nil {
		return err
	}

	f, err := bloomr.Load(path)
	if err != nil {
		return err
	}
	f.Add(keys...)
	if err := f.SaveAtomic(path); err != nil {
		return err
	}

	fill := f.FracFilled()
	slog.Info("Added keys", "path", path, "keys", len(keys), "stored", f.Count(), "fill", fill)
	if fill > cfg.Filter.WarnFill {
		slog.Warn("Filter is filling up", "path", path, "fill", fill,
			"fprate", bloomr.FalsePositiveRateFromFill(fill, f.K()))
	}
	return nil
}

func checkKeys(ctx *cli.Context) error {
	path, err := filterPath(ctx)
	if err != nil {
		return err
	}
	keys, err := readKeys(ctx)
	if err != nil {
		return err
	}
	f, err := bloomr.Load(path)
	if err != nil {
		return err
	}

	var (
		out    = bufio.NewWriter(ctx.App.Writer)
		absent int
	)
	for i, ok := range f.Check(keys...) {
		result := color.GreenString("true")
		if !ok {
			result = color.RedString("false")
			absent++
		}
		fmt.Fprintf(out, "%s\t%s\n", keys[i], result)
	}
	if err := out.Flush(); err != nil {
		return err
	}

	slog.Debug("Checked keys", "path", path, "keys", len(keys), "absent", absent)
	if absent > 0 && ctx.Bool(strictFlag.Name) {
		return errKeysAbsent
	}
	return nil
}

func printStats(ctx *cli.Context) error {
	path, err := filterPath(ctx)
	if err != nil {
		return err
	}
	f, err := bloomr.Load(path)
	if err != nil {
		return err
	}

	w := ctx.App.Writer
	if err := f.Describe(w); err != nil {
		return err
	}
	fill := f.FracFilled()
	fmt.Fprintf(w, "Hash family: %s\n", f.HashFamily())
	fmt.Fprintf(w, "Fill ratio: %.6f\n", fill)
	fmt.Fprintf(w, "Estimated false positive rate: %.6f\n", bloomr.FalsePositiveRateFromFill(fill, f.K()))
	fmt.Fprintf(w, "Estimated distinct keys: %.0f\n", f.EstimatedDistinct())
	return nil
}

func clearFilter(ctx *cli.Context) error {
	path, err := filterPath(ctx)
	if err != nil {
		return err
	}
	f, err := bloomr.Load(path)
	if err != nil {
		return err
	}
	f.Clear()
	if err := f.SaveAtomic(path); err != nil {
		return err
	}
	slog.Info("Cleared filter", "path", path, "stored", f.Count())
	return nil
}

// readKeys collects keys from the arguments after the filter file, or from
// --input. Blank lines in the input are skipped.
func readKeys(ctx *cli.Context) ([]string, error) {
	keys := ctx.Args().Tail()
	input := ctx.String(inputFlag.Name)
	if input == "" {
		if len(keys) == 0 {
			return nil, fmt.Errorf("no keys given (pass them as arguments or use --%s)", inputFlag.Name)
		}
		return keys, nil
	}
	if len(keys) > 0 {
		return nil, fmt.Errorf("keys given both as arguments and with --%s", inputFlag.Name)
	}

	var r io.Reader = ctx.App.Reader
	if input != "-" {
		file, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); line != "" {
			keys = append(keys, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", input, err)
	}
	return keys, nil
}
