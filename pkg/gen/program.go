package gen

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/raymyers/ralph-il/pkg/ast"
	"github.com/raymyers/ralph-il/pkg/il"
)

// Unit pairs a defined function with the frame its IL goes into
type Unit struct {
	Func  *ast.Func
	Frame *il.Frame
}

// Function generates fn's body into frame: the entry label, the body, then
// the exit label and return. The finished frame is checked for dangling
// labels.
func Function(fn *ast.Func, frame *il.Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("function %s: %v", fn.Name, r)
		}
	}()

	g := New(frame)
	frame.EmitLabel(frame.Entry)
	g.Stmt(fn.Body, frame.Entry, frame.Exit)
	frame.EmitEnd()
	return errors.Wrapf(frame.Check(), "function %s", fn.Name)
}

// Program generates every unit. Frames share no state, so with parallel set
// they are generated concurrently.
func Program(units []Unit, parallel bool) error {
	if !parallel {
		for _, u := range units {
			if err := Function(u.Func, u.Frame); err != nil {
				return err
			}
		}
		return nil
	}

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, u := range units {
		u := u
		eg.Go(func() error {
			return Function(u.Func, u.Frame)
		})
	}
	return eg.Wait()
}
