package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kr/pretty"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/driver"
	"github.com/cinder-lang/cinder/internal/emit"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cinder <command> [options]\n")
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  build <file>     Compile a Cinder source file\n")
		fmt.Fprintf(os.Stderr, "  check <file>     Type-check a Cinder source file\n")
		fmt.Fprintf(os.Stderr, "  dump <file>      Print the parsed and typed form of a source file\n")
		fmt.Fprintf(os.Stderr, "  fixpoint <file>  Verify that emission is byte-stable\n")
		fmt.Fprintf(os.Stderr, "  repl             Start an interactive session\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "build":
		os.Exit(runBuild(args))
	case "check":
		os.Exit(runCheck(args))
	case "dump":
		os.Exit(runDump(args))
	case "fixpoint":
		os.Exit(runFixpoint(args))
	case "repl":
		os.Exit(runRepl(args))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	targetName := fs.String("target", "", "output target: highlevel, systems, or bytecode")
	output := fs.String("o", "", "output path (defaults to the manifest or the source path)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cinder build <file>\n")
		return 1
	}
	path := fs.Arg(0)

	var target emit.Target
	if *targetName != "" {
		parsed, ok := emit.ParseTarget(*targetName)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown target %q\n", *targetName)
			return 1
		}
		target = parsed
	}

	artifact, diags, err := driver.CompileFile(path, target)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if reportDiagnostics(path, diags) {
		return 1
	}

	outPath := *output
	if outPath == "" {
		cfg, err := driver.FindConfig(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		outPath = cfg.OutputPath(path, artifact.Target)
	}
	if err := os.WriteFile(outPath, []byte(artifact.Code), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("wrote %s\n", outPath)
	return 0
}

func runCheck(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cinder check <file>\n")
		return 1
	}
	path := args[0]

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	info, diags := driver.Check(string(source), path)
	if reportDiagnostics(path, diags) {
		return 1
	}

	if info.ResultType != nil {
		fmt.Printf("%s: ok, program type %s\n", path, info.ResultType)
	} else {
		fmt.Printf("%s: ok\n", path)
	}
	return 0
}

func runDump(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	raw := fs.Bool("raw", false, "dump the tree structure instead of source form")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cinder dump <file>\n")
		return 1
	}
	path := fs.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	program, info, diags := driver.Analyze(string(source), path)
	if reportDiagnostics(path, diags) {
		return 1
	}

	if *raw {
		pretty.Println(program)
		return 0
	}

	fmt.Print(ast.Print(program))
	for _, stmt := range program.Stmts {
		if let, ok := stmt.(*ast.LetStmt); ok {
			if scheme, ok := info.Schemes[let]; ok {
				fmt.Printf("// %s : %s\n", let.Name.Name, scheme)
			}
		}
	}
	if info.ResultType != nil {
		fmt.Printf("// result : %s\n", info.ResultType)
	}
	return 0
}

func runFixpoint(args []string) int {
	fs := flag.NewFlagSet("fixpoint", flag.ExitOnError)
	targetName := fs.String("target", "bytecode", "target to verify")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cinder fixpoint <file>\n")
		return 1
	}
	path := fs.Arg(0)

	target, ok := emit.ParseTarget(*targetName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown target %q\n", *targetName)
		return 1
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	stable, diags := driver.Fixpoint(string(source), target)
	if reportDiagnostics(path, diags) {
		return 1
	}
	if !stable {
		fmt.Fprintf(os.Stderr, "%s: emission is not byte-stable on %s\n", path, target)
		return 1
	}
	fmt.Printf("%s: stable on %s\n", path, target)
	return 0
}

// reportDiagnostics renders diagnostics with source snippets and reports
// whether any were errors.
func reportDiagnostics(path string, diags []diag.Diagnostic) bool {
	if len(diags) == 0 {
		return false
	}
	f := diag.NewFormatterTo(os.Stderr)
	if source, err := os.ReadFile(path); err == nil {
		f.AddSource(path, string(source))
	}
	f.FormatAll(diags)
	return diag.HasErrors(diags)
}
