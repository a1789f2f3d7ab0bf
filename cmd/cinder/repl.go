package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/driver"
	"github.com/cinder-lang/cinder/internal/emit"
)

const historyFile = ".cinder_history"

// runRepl reads statements, type-checks them against everything entered
// so far, and prints the inferred type of the session's tail expression.
// :emit switches between showing types and showing emitted code.
func runRepl(args []string) int {
	fmt.Println("cinder repl; :help for commands")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	// The session accumulates statements; each input re-checks the whole
	// buffer so bindings persist across lines.
	var session strings.Builder
	var target emit.Target

	for {
		line, err := ln.Prompt(">> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return 0
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			done, newTarget := replCommand(trimmed, target)
			if done {
				return 0
			}
			target = newTarget
			continue
		}

		candidate := session.String() + line + "\n"
		if target == "" {
			info, diags := driver.Check(candidate, "")
			if printReplDiagnostics(candidate, diags) {
				continue
			}
			if info.ResultType != nil {
				fmt.Printf("%s\n", info.ResultType)
			}
		} else {
			artifact, diags := driver.Compile(candidate, target)
			if printReplDiagnostics(candidate, diags) {
				continue
			}
			fmt.Print(artifact.Code)
		}

		session.WriteString(line)
		session.WriteString("\n")
		ln.AppendHistory(line)
	}
}

// replCommand handles a colon command, returning whether the session
// should end and the (possibly changed) emission target.
func replCommand(cmd string, target emit.Target) (bool, emit.Target) {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":quit", ":q":
		return true, target

	case ":type":
		return false, ""

	case ":emit":
		if len(fields) < 2 {
			fmt.Println("usage: :emit <highlevel|systems|bytecode>")
			return false, target
		}
		parsed, ok := emit.ParseTarget(fields[1])
		if !ok {
			fmt.Printf("unknown target %q\n", fields[1])
			return false, target
		}
		return false, parsed

	case ":help":
		fmt.Println(":type            show inferred types (default)")
		fmt.Println(":emit <target>   show emitted code for each input")
		fmt.Println(":quit            exit")
		return false, target

	default:
		fmt.Println("unknown command. Type :help for commands.")
		return false, target
	}
}

func printReplDiagnostics(source string, diags []diag.Diagnostic) bool {
	if !diag.HasErrors(diags) {
		return false
	}
	f := diag.NewFormatterTo(os.Stderr)
	f.AddSource("", source)
	f.FormatAll(diags)
	return true
}
