// Package mdcase extracts golden test cases from Markdown documents.
//
// A case starts at a heading "Test: <name>" and holds one fenced source
// block followed by one or more expectation blocks:
//
//	## Test: empty function
//
//	```ril
//	function main(void) int;
//	function main { return 0; };
//	```
//
//	```il
//	function main:
//	  l0: storeret 0
//	  ...
//	```
//
// Code blocks without a language are commentary and are skipped.
package mdcase

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Kind names the language of a fenced block
type Kind string

const (
	Source      Kind = "ril"         // program text
	IL          Kind = "il"          // expected IL dump
	AST         Kind = "ast"         // expected typed AST dump
	Layout      Kind = "layout"      // expected YAML layout dump
	Diagnostics Kind = "diagnostics" // expected diagnostics, one per line
)

const headingPrefix = "Test: "

// Expectation is one expected output of a case
type Expectation struct {
	Kind    Kind
	Content string
	Line    int
}

// Case is one named source with its expectations
type Case struct {
	Name   string
	Source string
	Line   int
	Expect []Expectation
}

func isExpectation(k Kind) bool {
	switch k {
	case IL, AST, Layout, Diagnostics:
		return true
	}
	return false
}

// Extract returns the cases of a Markdown document in document order
func Extract(markdown []byte) ([]Case, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	var cases []Case
	var cur *Case
	finish := func() error {
		if cur == nil {
			return nil
		}
		if cur.Source == "" {
			return errors.Errorf("line %d: test %q has no %s block", cur.Line, cur.Name, Source)
		}
		if len(cur.Expect) == 0 {
			return errors.Errorf("line %d: test %q has no expectations", cur.Line, cur.Name)
		}
		cases = append(cases, *cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			title := nodeText(n, markdown)
			if !strings.HasPrefix(title, headingPrefix) {
				return ast.WalkSkipChildren, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			cur = &Case{Name: strings.TrimPrefix(title, headingPrefix), Line: lineOf(n, markdown)}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			kind := Kind(n.Language(markdown))
			line := lineOf(n, markdown)
			if kind == "" {
				return ast.WalkContinue, nil
			}
			if cur == nil {
				return ast.WalkStop, errors.Errorf("line %d: %s block outside of a test", line, kind)
			}
			content := blockText(n, markdown)
			switch {
			case kind == Source:
				if cur.Source != "" {
					return ast.WalkStop, errors.Errorf("line %d: test %q has more than one %s block", line, cur.Name, Source)
				}
				cur.Source = content
			case isExpectation(kind):
				cur.Expect = append(cur.Expect, Expectation{Kind: kind, Content: content, Line: line})
			default:
				return ast.WalkStop, errors.Errorf("line %d: unknown block language %q in test %q", line, kind, cur.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

func nodeText(node ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockText(block *ast.FencedCodeBlock, src []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

// lineOf returns the 1-based source line a block or heading starts on
func lineOf(node ast.Node, src []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(src[:start], []byte("\n")) + 1
}
