package parser

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-il/pkg/ast"
	"github.com/raymyers/ralph-il/pkg/diag"
	"github.com/raymyers/ralph-il/pkg/il"
	"github.com/raymyers/ralph-il/pkg/lexer"
	"github.com/raymyers/ralph-il/pkg/types"
)

// TestSpec represents a test case from parse.yaml
type TestSpec struct {
	Name        string              `yaml:"name"`
	Input       string              `yaml:"input"`
	Frames      map[string][]string `yaml:"frames"`
	Diagnostics []string            `yaml:"diagnostics"`
}

// TestFile represents the parse.yaml file structure
type TestFile struct {
	Tests []TestSpec `yaml:"tests"`
}

func frameLines(f *il.Frame) []string {
	var out []string
	for _, l := range f.Lines() {
		out = append(out, l.String())
	}
	return out
}

func TestParseYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/parse.yaml")
	if err != nil {
		t.Fatalf("failed to read parse.yaml: %v", err)
	}

	var testFile TestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse parse.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			res, err := ParseSource(tc.Input, Options{})
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}

			var got []string
			for _, d := range res.Diagnostics {
				got = append(got, fmt.Sprintf("%d: %s", d.Line, d.Text()))
			}
			if strings.Join(got, "\n") != strings.Join(tc.Diagnostics, "\n") {
				t.Errorf("diagnostics:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(tc.Diagnostics, "\n"))
			}
			if len(tc.Diagnostics) > 0 {
				if res.Generated {
					t.Error("code should not be generated after diagnostics")
				}
				return
			}
			if !res.Generated {
				t.Fatal("expected code generation")
			}

			for _, u := range res.Units {
				if err := u.Frame.Check(); err != nil {
					t.Errorf("frame %s: %v", u.Frame.Name, err)
				}
			}
			for name, want := range tc.Frames {
				var frame *il.Frame
				for _, f := range res.Frames() {
					if f.Name == name {
						frame = f
					}
				}
				if frame == nil {
					t.Fatalf("no frame for %s", name)
				}
				lines := frameLines(frame)
				if strings.Join(lines, "\n") != strings.Join(want, "\n") {
					t.Errorf("frame %s:\n%s\nwant:\n%s", name, strings.Join(lines, "\n"), strings.Join(want, "\n"))
				}
			}
		})
	}
}

const processSource = `
struct process;

function register_process(p: pointer to struct process) int;
function main(void) int;

struct process {
  pid: int;
  func: pointer to function (pointer to struct process) int;
  data: pointer to void;
};

processes: array [10] of pointer to struct process;
pid: int;

function register_process {
  @processes[pid] = p;
  @p->pid = pid;
  return 0;
};

function main {
  return 0;
};
`

func TestProcessLayout(t *testing.T) {
	res, err := ParseSource(processSource, Options{})
	be.Err(t, err, nil)
	be.Equal(t, len(res.Diagnostics), 0)

	be.Equal(t, len(res.Program.Structs), 1)
	process := res.Program.Structs[0]
	be.True(t, process.Complete())
	want := map[string]int{"pid": 0, "func": 4, "data": 8}
	for _, f := range process.Fields() {
		be.Equal(t, f.Offset, want[f.Name])
	}
	be.Equal(t, process.Width(), 12)

	processes, pid := res.Program.Globals[0], res.Program.Globals[1]
	be.Equal(t, processes.Typ.Width(), 40)
	be.Equal(t, processes.Typ.Align(), 4)
	be.Equal(t, processes.Offset, 0)
	be.Equal(t, pid.Offset, 40)
	be.Equal(t, res.Static.Size(), 44)

	fn := res.Program.Func("register_process")
	be.True(t, fn != nil)
	be.True(t, fn.Defined)
	be.Equal(t, fn.Params[0].Offset, -4)
	be.Equal(t, fn.Params[0].Storage, ast.Param)
	be.Equal(t, len(res.Units), 2)
}

func TestSelfReferentialStruct(t *testing.T) {
	src := `
struct node;
function len(n: pointer to struct node) int;
struct node { value: int; next: pointer to struct node; };
function len {
  count: int;
  @count = 0;
  while (n != null) {
    @count = count + 1;
    @n = n->next;
  }
  return count;
};
`
	res, err := ParseSource(src, Options{})
	be.Err(t, err, nil)
	be.Equal(t, len(res.Diagnostics), 0)
	next, ok := res.Program.Structs[0].Field("next")
	be.True(t, ok)
	be.Equal(t, next.Offset, 4)
	be.True(t, res.Generated)
}

func TestBreakOutsideLoopIsFatal(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"break", "function f(void) void;\nfunction f { break; };", "break outside of loop"},
		{"continue", "function f(void) void;\nfunction f { if (1) continue; };", "continue outside of loop"},
		{"after loop", "function f(void) void;\nfunction f { while (1) break; break; };", "break outside of loop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list diag.List
			res, err := ParseSource(tt.src, Options{Reporter: &list})
			if err == nil {
				t.Fatal("expected a syntax error")
			}
			if res != nil {
				t.Error("a syntax error should not produce a result")
			}
			if !errors.Is(err, diag.ErrSyntax) {
				t.Errorf("error %v should wrap ErrSyntax", err)
			}
			if list.Len() != 1 || list.Items[0].Message != tt.msg {
				t.Fatalf("reported %v, want %q", list.Items, tt.msg)
			}
			if list.Items[0].Line != 2 {
				t.Errorf("line = %d, want 2", list.Items[0].Line)
			}
		})
	}
}

func TestSyntaxErrorStopsParse(t *testing.T) {
	src := "function f(void) int;\nfunction f { return 0 };\nfunction g { return x; };"
	var list diag.List
	_, err := ParseSource(src, Options{Reporter: &list})
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if got := err.Error(); got != `Error: "Expected ;, encountered \"}\"", line 2` {
		t.Errorf("error = %s", got)
	}
	// nothing after the error is looked at
	if list.Len() != 1 {
		t.Errorf("expected 1 diagnostic, got %d: %v", list.Len(), list.Items)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing type", "x: ;", `Expected type specifier, encountered ";"`},
		{"trailing tokens", "x: int;\n42", `Expected EOF, encountered "42"`},
		{"unsigned without int", "x: unsigned;", `Expected int, encountered ";"`},
		{"bad expression", "function f(void) int;\nfunction f { return ); };", `Expected expression, encountered ")"`},
		{"missing of", "x: array [3] int;", `Expected of, encountered "int"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource(tt.src, Options{})
			var d diag.Diagnostic
			if !errors.As(err, &d) {
				t.Fatalf("expected a diagnostic error, got %v", err)
			}
			if d.Kind != diag.Syntax || d.Message != tt.want {
				t.Errorf("got %s %q, want %q", d.Kind, d.Message, tt.want)
			}
		})
	}
}

func TestUndeclaredIdentifierDoesNotCascade(t *testing.T) {
	src := `
function f(a: int) int;
function f {
  @a = x + 1;
  if (x * 2 < a) return -x;
  return f(x);
};
`
	res, err := ParseSource(src, Options{})
	be.Err(t, err, nil)
	// one report per use of x, none for the expressions built on it
	be.Equal(t, len(res.Diagnostics), 4)
	for _, d := range res.Diagnostics {
		be.Equal(t, d.Kind, diag.Name)
		be.Equal(t, d.Name, "x")
	}
	be.True(t, !res.Generated)
}

func TestReporterSeesDiagnosticsInOrder(t *testing.T) {
	src := "g: int;\ng: int;\nh: struct nope;"
	var buf bytes.Buffer
	w := diag.NewWriter(&buf, false)
	res, err := ParseSource(src, Options{Reporter: w})
	be.Err(t, err, nil)
	be.Equal(t, w.Count(), len(res.Diagnostics))
	be.Equal(t, buf.String(),
		"Error: \"g: name already declared at this scope\", line 2\n"+
			"Error: \"nope: struct has not been declared\", line 3\n")
}

func TestLocalsAndShadowing(t *testing.T) {
	src := `
function f(x: int) int;
function f {
  x: int;
  @x = 1;
  {
    x: int;
    y: pointer to int;
    @x = 2;
  }
  return x;
};
`
	res, err := ParseSource(src, Options{})
	be.Err(t, err, nil)
	be.Equal(t, len(res.Diagnostics), 0)

	fn := res.Program.Func("f")
	be.Equal(t, len(fn.Locals), 3)
	be.Equal(t, fn.Locals[0].Offset, 8)
	be.Equal(t, fn.Locals[1].Offset, 12)
	be.Equal(t, fn.Locals[2].Offset, 16)
	be.Equal(t, res.Units[0].Frame.LocalSize(), 12)
	be.Equal(t, res.Units[0].Frame.ParamSize(), 4)

	// the inner assignment binds the inner x
	set := fn.Body.(*ast.Sequence).Rest.(*ast.Sequence).First.(*ast.Sequence).First.(*ast.Set)
	be.True(t, set.Target == fn.Locals[1])
}

func TestDuplicateLocalAndParam(t *testing.T) {
	src := `
function f(a: int, a: int) int;
function f { b: int; b: int; return b; };
`
	res, err := ParseSource(src, Options{})
	be.Err(t, err, nil)
	be.Equal(t, len(res.Diagnostics), 2)
	be.Equal(t, res.Diagnostics[0].Text(), "a: name already declared at this scope")
	be.Equal(t, res.Diagnostics[0].Line, 2)
	be.Equal(t, res.Diagnostics[1].Text(), "b: name already declared at this scope")
	be.Equal(t, res.Diagnostics[1].Line, 3)
}

func TestFunctionTypes(t *testing.T) {
	src := `
function apply(f: pointer to function (int, int) int, a: int) int;
function apply { return f(a, a); };
`
	res, err := ParseSource(src, Options{})
	be.Err(t, err, nil)
	be.Equal(t, len(res.Diagnostics), 0)

	fn := res.Program.Func("apply")
	be.Equal(t, fn.Typ.String(), "function (pointer to function (int, int) int, int) int")
	be.Equal(t, len(fn.Typ.Params), 2)
	be.True(t, types.Equal(fn.Typ.Return, types.Int))

	lines := frameLines(res.Units[0].Frame)
	be.Equal(t, lines[0], "l0: param a")
	be.Equal(t, lines[2], "call f, 2")
}

func TestShortCircuitNeverCalls(t *testing.T) {
	conds := []string{"0 && g()", "1 || g()", "0 && (g() || g())", "1 || (g() && g())"}
	for _, cond := range conds {
		t.Run(cond, func(t *testing.T) {
			src := fmt.Sprintf("function g(void) int;\nfunction g { if (%s) return 1; return 0; };", cond)
			res, err := ParseSource(src, Options{})
			be.Err(t, err, nil)
			be.True(t, res.Generated)
			for _, in := range res.Units[0].Frame.Instrs() {
				switch in.(type) {
				case il.Call, il.Param:
					t.Errorf("unexpected %s", in)
				}
			}
		})
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	var sources []string
	for i := 0; i < 8; i++ {
		sources = append(sources, fmt.Sprintf(`function f%d(n: int) int;`, i))
	}
	src := strings.Join(sources, "\n") + "\n"
	for i := 0; i < 8; i++ {
		src += fmt.Sprintf(`function f%d {
  s: int;
  @s = 0;
  while (n > %d && s < 100) { @s = s + n * 2; @n = n - 1; }
  return s;
};
`, i, i)
	}

	render := func(parallel bool) string {
		res, err := ParseSource(src, Options{Parallel: parallel})
		be.Err(t, err, nil)
		be.True(t, res.Generated)
		var buf bytes.Buffer
		il.NewPrinter(&buf).PrintFrames(res.Frames())
		return buf.String()
	}
	be.Equal(t, render(true), render(false))
}

func TestLookAhead(t *testing.T) {
	p := New(lexer.New("a b c d"), Options{})
	be.Equal(t, p.lookAhead(0).Literal, "a")
	be.Equal(t, p.lookAhead(3).Literal, "d")
	be.Equal(t, p.lookAhead(2).Literal, "c")
	p.nextToken()
	be.Equal(t, p.curToken.Literal, "b")
	be.Equal(t, p.peekToken.Literal, "c")
	p.nextToken()
	p.nextToken()
	be.Equal(t, p.curToken.Literal, "d")
}

func TestOversizedArrayIsNotTruncated(t *testing.T) {
	src := `
big: array [4294967297] of int;
n: int;
`
	res, err := ParseSource(src, Options{})
	be.Err(t, err, nil)
	be.Equal(t, len(res.Diagnostics), 1)
	be.True(t, errors.Is(res.Diagnostics[0], diag.ErrType))
	be.Equal(t, res.Diagnostics[0].Line, 2)
	be.True(t, !res.Generated)

	// the bad global takes no storage instead of a truncated array [1]
	be.True(t, types.IsInvalid(res.Program.Globals[0].Typ))
	be.Equal(t, res.Program.Globals[1].Offset, 0)
	be.Equal(t, res.Static.Size(), 4)
}

func TestWideLiteralIsRejected(t *testing.T) {
	src := `
function f(void) int;
a: int;
function f { @a = 99999999999; @a = 2147483647; return 0; };
`
	res, err := ParseSource(src, Options{})
	be.Err(t, err, nil)
	be.Equal(t, len(res.Diagnostics), 1)
	be.Equal(t, res.Diagnostics[0].Text(), "Expected int constant of at most 2147483647, encountered 99999999999")
	be.Equal(t, res.Diagnostics[0].Line, 4)
	be.True(t, !res.Generated)
}
