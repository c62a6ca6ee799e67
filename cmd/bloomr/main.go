// Command bloomr creates, updates and queries bloom filter files.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "TOML file with filter defaults",
		EnvVars: []string{"BLOOMR_CONFIG"},
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	}
	logJSONFlag = &cli.BoolFlag{
		Name:  "log.json",
		Usage: "Format logs with JSON",
	}
	noColorFlag = &cli.BoolFlag{
		Name:  "nocolor",
		Usage: "Disable colored output",
	}

	sizeFlag = &cli.Uint64Flag{
		Name:    "size",
		Aliases: []string{"m"},
		Usage:   "Number of bits in the filter",
		EnvVars: []string{"BLOOMR_SIZE"},
	}
	hashesFlag = &cli.UintFlag{
		Name:    "hashes",
		Aliases: []string{"k"},
		Usage:   "Number of hash functions",
		EnvVars: []string{"BLOOMR_HASHES"},
	}
	hashFlag = &cli.StringFlag{
		Name:    "hash",
		Usage:   "Hash family (xxh3 or murmur3)",
		EnvVars: []string{"BLOOMR_HASH"},
	}
	warnFillFlag = &cli.Float64Flag{
		Name:  "warn-fill",
		Usage: "Warn when the fill ratio exceeds this value after adding",
	}
	forceFlag = &cli.BoolFlag{
		Name:  "force",
		Usage: "Overwrite an existing filter file",
	}
	inputFlag = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Read keys from this file, one per line (\"-\" for stdin)",
	}
	strictFlag = &cli.BoolFlag{
		Name:  "strict",
		Usage: "Exit with status 1 if any key is absent",
	}
)

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "bloomr",
		Usage:     "create, update and query bloom filter files",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			configFlag,
			verbosityFlag,
			logJSONFlag,
			noColorFlag,
		},
		Before: func(ctx *cli.Context) error {
			if ctx.Bool(noColorFlag.Name) {
				color.NoColor = true
			}
			return setupLogging(ctx)
		},
		Commands: []*cli.Command{
			createCommand,
			addCommand,
			checkCommand,
			statsCommand,
			clearCommand,
		},
	}
}

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
