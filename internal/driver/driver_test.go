package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/emit"
)

func TestCompileAllTargets(t *testing.T) {
	input := "let x = 1 + 2 * 3; x"

	for _, target := range []emit.Target{emit.TargetHighLevel, emit.TargetSystems, emit.TargetBytecode} {
		artifact, diags := Compile(input, target)
		if diag.HasErrors(diags) {
			t.Fatalf("compile(%s) reported errors: %s", target, pretty.Sprint(diags))
		}
		if artifact.Target != target {
			t.Fatalf("artifact target wrong. expected=%q, got=%q", target, artifact.Target)
		}
		if artifact.Code == "" {
			t.Fatalf("compile(%s) produced empty artifact", target)
		}
	}
}

func TestCompileStageDiagnostics(t *testing.T) {
	tests := []struct {
		input string
		stage diag.Stage
		code  diag.Code
	}{
		{"let x = @;", diag.StageLexer, diag.CodeLexIllegalRune},
		{"let = 5;", diag.StageParser, diag.CodeParseMissingToken},
		{"missing", diag.StageInfer, diag.CodeInferUnboundVariable},
		{"1 + true", diag.StageInfer, diag.CodeInferTypeMismatch},
	}

	for i, tt := range tests {
		_, diags := Compile(tt.input, emit.TargetHighLevel)
		if !diag.HasErrors(diags) {
			t.Fatalf("tests[%d] - expected errors for %q, got none", i, tt.input)
		}
		first, _ := diag.First(diags)
		if first.Stage != tt.stage {
			t.Fatalf("tests[%d] - stage wrong for %q. expected=%q, got=%q",
				i, tt.input, tt.stage, first.Stage)
		}
		if first.Code != tt.code {
			t.Fatalf("tests[%d] - code wrong for %q. expected=%q, got=%q",
				i, tt.input, tt.code, first.Code)
		}
	}
}

func TestCompileEmitDiagnostic(t *testing.T) {
	// Valid program that the copying-closure targets reject.
	input := "let n = 0; let bump = fun() { n = n + 1; }; bump();"

	if _, diags := Compile(input, emit.TargetHighLevel); diag.HasErrors(diags) {
		t.Fatalf("highlevel compile reported errors: %s", pretty.Sprint(diags))
	}

	for _, target := range []emit.Target{emit.TargetSystems, emit.TargetBytecode} {
		_, diags := Compile(input, target)
		first, ok := diag.First(diags)
		if !ok {
			t.Fatalf("expected emit diagnostic on %s, got none", target)
		}
		if first.Stage != diag.StageEmit || first.Code != diag.CodeEmitUnsupported {
			t.Fatalf("diagnostic wrong on %s. got stage=%q code=%q", target, first.Stage, first.Code)
		}
	}
}

func TestCompileDoesNotEmitPastInferenceFailure(t *testing.T) {
	artifact, diags := Compile("let x = missing;", emit.TargetBytecode)
	if !diag.HasErrors(diags) {
		t.Fatalf("expected errors, got none")
	}
	if artifact.Code != "" {
		t.Fatalf("failed compile must not produce an artifact, got %q", artifact.Code)
	}
}

func TestFixpoint(t *testing.T) {
	input := `
fun twice(f, x) { f(f(x)) }
let inc = fun(n) { n + 1 };
twice(inc, 5)
`
	for _, target := range []emit.Target{emit.TargetHighLevel, emit.TargetSystems, emit.TargetBytecode} {
		stable, diags := Fixpoint(input, target)
		if diag.HasErrors(diags) {
			t.Fatalf("fixpoint(%s) reported errors: %s", target, pretty.Sprint(diags))
		}
		if !stable {
			t.Fatalf("fixpoint(%s) not stable", target)
		}
	}
}

func TestFixpointRejectsInvalidSource(t *testing.T) {
	stable, diags := Fixpoint("let = 1;", emit.TargetHighLevel)
	if stable {
		t.Fatalf("fixpoint should fail on invalid source")
	}
	if !diag.HasErrors(diags) {
		t.Fatalf("expected diagnostics, got none")
	}
}

func TestCompileFileUsesManifest(t *testing.T) {
	dir := t.TempDir()

	manifest := "name: demo\ntarget: bytecode\nmemory:\n    floor_pages: 3\n"
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigName), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %s", err)
	}
	srcPath := filepath.Join(dir, "main.cn")
	if err := os.WriteFile(srcPath, []byte("let x = 1; x"), 0o644); err != nil {
		t.Fatalf("write source: %s", err)
	}

	artifact, diags, err := CompileFile(srcPath, "")
	if err != nil {
		t.Fatalf("compile file failed: %s", err)
	}
	if diag.HasErrors(diags) {
		t.Fatalf("compile file reported errors: %s", pretty.Sprint(diags))
	}
	if artifact.Target != emit.TargetBytecode {
		t.Fatalf("manifest target not used. expected=%q, got=%q", emit.TargetBytecode, artifact.Target)
	}
	if !strings.Contains(artifact.Code, "(memory (export \"memory\") 3)") {
		t.Fatalf("manifest memory floor not applied.\n%s", artifact.Code)
	}
}

func TestCompileFileWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "main.cn")
	if err := os.WriteFile(srcPath, []byte("let x = 1; x"), 0o644); err != nil {
		t.Fatalf("write source: %s", err)
	}

	artifact, diags, err := CompileFile(srcPath, "")
	if err != nil {
		t.Fatalf("compile file failed: %s", err)
	}
	if diag.HasErrors(diags) {
		t.Fatalf("compile file reported errors: %s", pretty.Sprint(diags))
	}
	if artifact.Target != emit.TargetHighLevel {
		t.Fatalf("default target wrong. expected=%q, got=%q", emit.TargetHighLevel, artifact.Target)
	}
}

func TestCompileFileDiagnosticsCarryFilename(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "broken.cn")
	if err := os.WriteFile(srcPath, []byte("let = 1;"), 0o644); err != nil {
		t.Fatalf("write source: %s", err)
	}

	_, diags, err := CompileFile(srcPath, "")
	if err != nil {
		t.Fatalf("compile file failed: %s", err)
	}
	first, ok := diag.First(diags)
	if !ok {
		t.Fatalf("expected diagnostics, got none")
	}
	if first.Span.Filename != srcPath {
		t.Fatalf("diagnostic filename wrong. expected=%q, got=%q", srcPath, first.Span.Filename)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"full", "name: demo\ntarget: systems\noutput: out.rs\nmemory:\n    floor_pages: 2\n", false},
		{"empty", "", false},
		{"unknown target", "target: llvm\n", true},
		{"negative floor", "memory:\n    floor_pages: -1\n", true},
		{"unknown field", "flavor: spicy\n", true},
	}

	for i, tt := range tests {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigName)
		if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
			t.Fatalf("tests[%d] - write config: %s", i, err)
		}

		_, err := LoadConfig(path)
		if tt.wantErr && err == nil {
			t.Fatalf("tests[%d] - %s: expected error, got none", i, tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Fatalf("tests[%d] - %s: unexpected error: %s", i, tt.name, err)
		}
	}
}

func TestConfigOutputPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.OutputPath("src/main.cn", emit.TargetSystems); got != "src/main.rs" {
		t.Fatalf("output path wrong. expected=%q, got=%q", "src/main.rs", got)
	}

	cfg.Output = "dist/app.wat"
	if got := cfg.OutputPath("src/main.cn", emit.TargetBytecode); got != "dist/app.wat" {
		t.Fatalf("explicit output not used. expected=%q, got=%q", "dist/app.wat", got)
	}
}
