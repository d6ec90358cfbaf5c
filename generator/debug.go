package generator

import (
	"io"
	"os"

	"github.com/projectdiscovery/gologger"
)

// DebugEnv is the environment variable steering build-time debug output:
// "graphviz" and "mermaid" dump the nfa/dfa/min automata as graphs, "log"
// makes the emitted dispatch print entered states to stderr, and "source"
// dumps the generated file before gofmt.
const DebugEnv = "HERRING_DEBUG"

func debugMode() string {
	return os.Getenv(DebugEnv)
}

type graphWriter interface {
	WriteGraphviz(w io.Writer) error
	WriteMermaid(w io.Writer) error
}

// debugGraph dumps an automaton when the debug channel asks for it. The
// dump is advisory: failures are logged, never fatal.
func debugGraph(a graphWriter, name string) {
	var path string
	var write func(io.Writer) error
	switch debugMode() {
	case "graphviz":
		path = name + ".dot"
		write = a.WriteGraphviz
	case "mermaid":
		path = name + ".mmd"
		write = a.WriteMermaid
	default:
		return
	}
	f, err := os.Create(path)
	if err != nil {
		gologger.Error().Msgf("cannot write debug graph %s: %v", path, err)
		return
	}
	defer f.Close()
	if err := write(f); err != nil {
		gologger.Error().Msgf("cannot write debug graph %s: %v", path, err)
	}
}

func debugLogStates() bool {
	return debugMode() == "log"
}

// debugDumpSource writes the unformatted generated source next to the
// build when requested.
func debugDumpSource(typeName string, src []byte) {
	if debugMode() != "source" {
		return
	}
	path := typeName + "_lexer.go.txt"
	if err := os.WriteFile(path, src, 0o644); err != nil {
		gologger.Error().Msgf("cannot dump generated source %s: %v", path, err)
	}
}
