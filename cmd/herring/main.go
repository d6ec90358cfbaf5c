// Command herring generates a Go lexer from a YAML token specification.
//
// The spec declares token variants with literal and regex patterns; the
// generated file contains the token type and a DFA dispatch function
// against the herring runtime. See the generator package for the spec
// format and the HERRING_DEBUG side channel.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	fileutil "github.com/projectdiscovery/utils/file"

	"github.com/0x2a-42/herring/generator"
)

const version = "0.1.0"

type options struct {
	Spec    string
	Output  string
	Package string
	Verbose bool
	Silent  bool
}

func parseFlags() *options {
	opts := &options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`Generate a DFA lexer from a declarative token specification.`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.Spec, "spec", "s", "", "lexer specification file (yaml)"),
	)
	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.Output, "output", "o", "", "output file (default <spec>_lexer.go)"),
		flagSet.StringVarP(&opts.Package, "package", "p", "", "override the package name of the generated file"),
		flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "display verbose output"),
		flagSet.BoolVar(&opts.Silent, "silent", false, "display errors only"),
		flagSet.CallbackVar(printVersion, "version", "display herring version"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("Could not read flags: %s\n", err)
	}
	if opts.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	} else if opts.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	return opts
}

func printVersion() {
	gologger.Info().Msgf("Current herring version: v%s", version)
	os.Exit(0)
}

func main() {
	opts := parseFlags()
	if opts.Spec == "" {
		gologger.Fatal().Msg("no specification file given, use -spec")
	}
	if !fileutil.FileExists(opts.Spec) {
		gologger.Fatal().Msgf("specification file %s does not exist", opts.Spec)
	}

	spec, err := generator.LoadSpec(opts.Spec)
	if err != nil {
		gologger.Fatal().Msgf("%v", err)
	}
	if opts.Package != "" {
		spec.Package = opts.Package
	}

	prog, err := generator.Build(spec)
	if err != nil {
		gologger.Fatal().Msgf("%v", err)
	}
	src, err := generator.Emit(prog)
	if err != nil {
		gologger.Fatal().Msgf("%v", err)
	}

	output := opts.Output
	if output == "" {
		base := strings.TrimSuffix(filepath.Base(opts.Spec), filepath.Ext(opts.Spec))
		output = base + "_lexer.go"
	}
	if err := os.WriteFile(output, src, 0o644); err != nil {
		gologger.Fatal().Msgf("cannot write %s: %v", output, err)
	}
	gologger.Info().Msgf("Generated %s (%d states) into %s", spec.TypeName, prog.DFA.Len(), output)
}
