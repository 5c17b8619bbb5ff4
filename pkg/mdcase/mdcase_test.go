package mdcase

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func TestExtract(t *testing.T) {
	md := `# Jumping code

Some prose that is not a test.

## Test: return zero
` + fence + `ril
function main(void) int;
function main { return 0; };
` + fence + `

` + fence + `il
function main:
  l0: storeret 0
` + fence + `

## Test: two expectations
` + fence + `ril
x: int;
` + fence + `
` + fence + `
plain block, ignored
` + fence + `
` + fence + `layout
static:
  size: 4
` + fence + `
` + fence + `diagnostics
` + fence + `
`
	cases, err := Extract([]byte(md))
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)

	c := cases[0]
	be.Equal(t, c.Name, "return zero")
	be.Equal(t, c.Source, "function main(void) int;\nfunction main { return 0; };\n")
	be.Equal(t, len(c.Expect), 1)
	be.Equal(t, c.Expect[0].Kind, IL)
	be.Equal(t, c.Expect[0].Content, "function main:\n  l0: storeret 0\n")
	be.Equal(t, c.Line, 5)

	c = cases[1]
	be.Equal(t, c.Name, "two expectations")
	be.Equal(t, len(c.Expect), 2)
	be.Equal(t, c.Expect[0].Kind, Layout)
	be.Equal(t, c.Expect[1].Kind, Diagnostics)
	be.Equal(t, c.Expect[1].Content, "")
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name string
		md   string
		want string
	}{
		{
			"block outside test",
			fence + "ril\nx: int;\n" + fence + "\n",
			"outside of a test",
		},
		{
			"no source",
			"## Test: a\n" + fence + "il\nret\n" + fence + "\n",
			`test "a" has no ril block`,
		},
		{
			"no expectations",
			"## Test: a\n" + fence + "ril\nx: int;\n" + fence + "\n",
			`test "a" has no expectations`,
		},
		{
			"two sources",
			"## Test: a\n" + fence + "ril\nx: int;\n" + fence + "\n" + fence + "ril\ny: int;\n" + fence + "\n",
			"more than one ril block",
		},
		{
			"unknown language",
			"## Test: a\n" + fence + "ril\nx: int;\n" + fence + "\n" + fence + "asm\nret\n" + fence + "\n",
			`unknown block language "asm"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]byte(tt.md))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Extract() error = %v, want %q", err, tt.want)
			}
		})
	}
}
