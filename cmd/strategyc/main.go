// Command strategyc checks and compiles strategy documents outside the studio.
//
//	strategyc validate <file>   check a document against the block registry
//	strategyc fmt [-w] <file>   print (or rewrite) the canonical document
//	strategyc gen <file>        print the generated strategy program
//	strategyc blocks            list block types by toolbox category
//
// A file of "-" reads standard input.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/codegen"
	"github.com/AaronLay10/OrbFi/internal/serializer"
	"github.com/AaronLay10/OrbFi/internal/toolbox"
	"github.com/AaronLay10/OrbFi/internal/version"
)

const usage = "usage: strategyc validate|fmt|gen|blocks [flags] [file]"

// Report is the -json output of validate.
type Report struct {
	File    string                    `json:"file"`
	OK      bool                      `json:"ok"`
	Error   string                    `json:"error,omitempty"`
	Stacks  int                       `json:"stacks"`
	Blocks  int                       `json:"blocks"`
	Entries int                       `json:"entries"`
	Skipped []codegen.GenerationIssue `json:"skipped,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	reg, err := blocks.Default()
	if err != nil {
		fmt.Fprintf(stderr, "strategyc: block registry: %v\n", err)
		return 1
	}

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	write := fs.Bool("w", false, "write the result back to the file (fmt)")
	asJSON := fs.Bool("json", false, "print a JSON report (validate)")
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	switch cmd {
	case "blocks":
		return listBlocks(reg, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version.Version)
		return 0
	case "validate", "fmt", "gen":
	default:
		fmt.Fprintln(stderr, usage)
		return 2
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, usage)
		return 2
	}
	file := fs.Arg(0)
	doc, err := readInput(file, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "strategyc: %v\n", err)
		return 1
	}

	switch cmd {
	case "validate":
		return validate(reg, file, doc, *asJSON, stdout, stderr)
	case "fmt":
		out, err := serializer.Normalize(doc, reg)
		if err != nil {
			fmt.Fprintf(stderr, "strategyc: %s: %v\n", file, err)
			return 1
		}
		if *write && file != "-" {
			if err := os.WriteFile(file, out, 0o644); err != nil {
				fmt.Fprintf(stderr, "strategyc: %v\n", err)
				return 1
			}
			return 0
		}
		stdout.Write(out)
		fmt.Fprintln(stdout)
		return 0
	default:
		g, err := serializer.Import(doc, reg)
		if err != nil {
			fmt.Fprintf(stderr, "strategyc: %s: %v\n", file, err)
			return 1
		}
		p, err := codegen.Generate(g, reg)
		if err != nil {
			fmt.Fprintf(stderr, "strategyc: %s: %v\n", file, err)
			return 1
		}
		for _, issue := range p.Skipped {
			fmt.Fprintf(stderr, "skipped: %v\n", issue)
		}
		fmt.Fprint(stdout, p.Source())
		return 0
	}
}

func readInput(file string, stdin io.Reader) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}

func validate(reg *blocks.Registry, file string, doc []byte, asJSON bool, stdout, stderr io.Writer) int {
	rep := Report{File: file}
	g, err := serializer.Import(doc, reg)
	if err == nil {
		rep.Stacks = len(g.Stacks)
		rep.Blocks = g.Len()
		var p *codegen.Program
		if p, err = codegen.Generate(g, reg); err == nil {
			rep.Entries = len(p.Entries)
			rep.Skipped = p.Skipped
		}
	}
	if err != nil {
		rep.Error = err.Error()
	}
	rep.OK = err == nil

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.Encode(rep)
	} else if rep.OK {
		fmt.Fprintf(stdout, "%s: ok (%d stacks, %d blocks, %d entry points)\n", file, rep.Stacks, rep.Blocks, rep.Entries)
		for _, issue := range rep.Skipped {
			fmt.Fprintf(stdout, "  skipped: %v\n", issue)
		}
	} else {
		fmt.Fprintf(stderr, "%s: %s\n", file, describe(err))
	}

	if !rep.OK {
		return 1
	}
	return 0
}

// describe prefixes an import failure with its category.
func describe(err error) string {
	switch {
	case errors.Is(err, serializer.ErrMalformedDocument):
		return "malformed document: " + err.Error()
	case errors.Is(err, serializer.ErrUnknownBlockType):
		return "unknown block type: " + err.Error()
	case errors.Is(err, serializer.ErrMalformedSocket):
		return "malformed socket: " + err.Error()
	case errors.Is(err, serializer.ErrInvalidField):
		return "invalid field: " + err.Error()
	}
	return err.Error()
}

func listBlocks(reg *blocks.Registry, stdout, stderr io.Writer) int {
	tb, err := toolbox.Build(reg, toolbox.DefaultConfig())
	if err != nil {
		fmt.Fprintf(stderr, "strategyc: toolbox: %v\n", err)
		return 1
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tTYPE\tSHAPE\tOUTPUT")
	for i := range tb.Categories {
		c := &tb.Categories[i]
		for _, name := range c.TypeNames() {
			bt, err := reg.Get(name)
			if err != nil {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, bt.Type, bt.Shape, bt.Output)
		}
	}
	for _, name := range tb.Unlisted(reg) {
		if bt, err := reg.Get(name); err == nil {
			fmt.Fprintf(tw, "-\t%s\t%s\t%s\n", bt.Type, bt.Shape, bt.Output)
		}
	}
	if err := tw.Flush(); err != nil {
		return 1
	}
	return 0
}
