// Command tacc compiles a single C-like source text into x86-64 assembly.
//
// Grounded on the teacher's main.go (a single run(opt) stage pipeline
// called from main after argument parsing), with argument parsing itself
// replaced by github.com/spf13/cobra -- the CLI shape the oisee-minz
// example repo uses for its compiler command -- since the teacher's own
// hand-rolled util.ParseArgs has no equivalent outside this pack.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tacc/internal/compiler"
)

var (
	debug bool
	out   string
)

var rootCmd = &cobra.Command{
	Use:   "tacc [source text]",
	Short: "tacc compiles a small C-like language to x86-64 assembly",
	Long: `tacc translates a single C-like source text -- a sequence of
function definitions with integer and pointer locals, control flow, and
calls -- into x86-64 assembly in Intel syntax for the Linux System V AMD64
calling convention.

The single positional argument is the source text itself, not a path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "print each function's TAC, intervals, register assignments and stack size to stderr (tokens and AST are not printed)")
	rootCmd.Flags().StringVarP(&out, "out", "o", "", "write assembly to this file instead of stdout")
}

func run(src string) error {
	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("could not open output file: %w", err)
		}
		defer f.Close()
		return compileTo(src, f)
	}
	return compileTo(src, w)
}

func compileTo(src string, w *os.File) error {
	opt := compiler.Options{Debug: debug}
	if debug {
		opt.Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()
	}
	return compiler.Compile(src, w, opt)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if debug {
			fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
