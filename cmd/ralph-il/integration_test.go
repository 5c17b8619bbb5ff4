package main

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-il/pkg/mdcase"
)

// E2ETestSpec represents a single end-to-end IL test case
type E2ETestSpec struct {
	Name         string   `yaml:"name"`
	Input        string   `yaml:"input"`
	Args         []string `yaml:"args"`          // Extra flags, -dil when empty
	Expect       []string `yaml:"expect"`        // Strings that must appear in output
	ExpectOrder  []string `yaml:"expect_order"`  // Strings that must appear in this order
	ExpectUnique []string `yaml:"expect_unique"` // Strings that must appear exactly once
	ExpectNot    []string `yaml:"expect_not"`    // Strings that must NOT appear in output
	Skip         string   `yaml:"skip,omitempty"`
}

// E2ETestFile represents the e2e.yaml file structure
type E2ETestFile struct {
	Tests []E2ETestSpec `yaml:"tests"`
}

func TestE2EYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/e2e.yaml")
	if err != nil {
		t.Fatalf("e2e.yaml not found: %v", err)
	}

	var testFile E2ETestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse e2e.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			path := writeSource(t, tc.Input)
			args := tc.Args
			if len(args) == 0 {
				args = []string{"-dil"}
			}
			output, errOut, err := execute(append(args, path)...)
			if err != nil {
				t.Fatalf("ralph-il failed: %v\nStderr: %s", err, errOut)
			}

			for _, exp := range tc.Expect {
				if !strings.Contains(output, exp) {
					t.Errorf("expected output to contain %q\nGot:\n%s", exp, output)
				}
			}

			if len(tc.ExpectOrder) > 0 {
				lastIdx := -1
				for _, exp := range tc.ExpectOrder {
					idx := strings.Index(output, exp)
					if idx == -1 {
						t.Errorf("expected output to contain %q for order check\nGot:\n%s", exp, output)
					} else if idx <= lastIdx {
						t.Errorf("expected %q to appear after previous pattern (position %d vs %d)\nGot:\n%s", exp, idx, lastIdx, output)
					}
					lastIdx = idx
				}
			}

			for _, exp := range tc.ExpectUnique {
				if count := strings.Count(output, exp); count != 1 {
					t.Errorf("expected %q to appear exactly once, found %d times\nGot:\n%s", exp, count, output)
				}
			}

			for _, exp := range tc.ExpectNot {
				if strings.Contains(output, exp) {
					t.Errorf("expected output NOT to contain %q\nGot:\n%s", exp, output)
				}
			}
		})
	}
}

// dumpFlags maps each stdout expectation to the flag that produces it
var dumpFlags = map[mdcase.Kind]string{
	mdcase.IL:     "-dil",
	mdcase.AST:    "-dparse",
	mdcase.Layout: "-dlayout",
}

func TestGoldenMarkdown(t *testing.T) {
	data, err := os.ReadFile("../../testdata/il.md")
	if err != nil {
		t.Fatalf("il.md not found: %v", err)
	}
	cases, err := mdcase.Extract(data)
	if err != nil {
		t.Fatalf("failed to extract cases from il.md: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("il.md has no cases")
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			path := writeSource(t, tc.Source)

			for _, exp := range tc.Expect {
				if exp.Kind == mdcase.Diagnostics {
					_, errOut, err := execute(path)
					if errOut != exp.Content {
						t.Errorf("il.md:%d: stderr mismatch\nwant:\n%s\ngot:\n%s", exp.Line, exp.Content, errOut)
					}
					if failed := errors.Is(err, ErrCompileFailed); failed != (exp.Content != "") {
						t.Errorf("il.md:%d: unexpected result %v", exp.Line, err)
					}
					continue
				}

				out, errOut, err := execute(dumpFlags[exp.Kind], path)
				if err != nil {
					t.Fatalf("il.md:%d: ralph-il failed: %v\nStderr: %s", exp.Line, err, errOut)
				}
				if exp.Kind == mdcase.Layout {
					assertSameYAML(t, exp.Line, exp.Content, out)
					continue
				}
				if out != exp.Content {
					t.Errorf("il.md:%d: %s mismatch\nwant:\n%s\ngot:\n%s", exp.Line, exp.Kind, exp.Content, out)
				}
			}
		})
	}
}

// assertSameYAML compares documents by value so that the golden file may use
// any YAML style
func assertSameYAML(t *testing.T, line int, want, got string) {
	t.Helper()
	var w, g any
	if err := yaml.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("il.md:%d: bad layout block: %v", line, err)
	}
	if err := yaml.Unmarshal([]byte(got), &g); err != nil {
		t.Fatalf("il.md:%d: bad layout output: %v\n%s", line, err, got)
	}
	if !reflect.DeepEqual(w, g) {
		t.Errorf("il.md:%d: layout mismatch\nwant:\n%s\ngot:\n%s", line, want, got)
	}
}
