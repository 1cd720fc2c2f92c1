// Command maelctl is a developer-facing diagnostic CLI, kept separate
// from the node binaries: the nodes themselves take no flags (every
// configuration knob arrives over the wire at init), but replaying and
// inspecting a captured transcript is a local, offline concern that
// belongs in its own tool.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	"github.com/prometheus/common/version"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/jabolina/maelnode/internal/node"
)

var (
	app = kingpin.New("maelctl", "Diagnostic tooling for maelnode workloads.")

	replayCmd  = app.Command("replay", "Pretty-print a captured newline-delimited JSON transcript.")
	replayFile = replayCmd.Arg("file", "Transcript file; defaults to stdin when omitted.").String()

	versionCmd = app.Command("version", "Print build version information.")
)

func main() {
	switch kingpin.MustParse(app.Parse(os.Args[1:])) {
	case replayCmd.FullCommand():
		if err := runReplay(*replayFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case versionCmd.FullCommand():
		fmt.Fprintln(colorable.NewColorableStdout(), version.Print("maelctl"))
	}
}

func runReplay(path string) error {
	in := os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open transcript: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := colorable.NewColorableStdout()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var env node.Envelope
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		if err := dec.Decode(&env); err != nil {
			color.New(color.FgRed).Fprintf(out, "line %d: malformed envelope: %v\n", lineNo, err)
			continue
		}

		typ := env.Body.Type()
		label := color.New(color.FgGreen)
		if typ == "error" {
			label = color.New(color.FgRed)
		}
		label.Fprintf(out, "[%04d] %s -> %s ", lineNo, env.Src, env.Dest)
		fmt.Fprintf(out, "%s %v\n", typ, map[string]interface{}(env.Body))
	}
	return scanner.Err()
}
