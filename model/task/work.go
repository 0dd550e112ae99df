package task

import (
	"context"
	"fmt"

	"github.com/viant/structology/conv"
)

// Args is the named argument bundle passed to a work item.
type Args map[string]any

// WorkItem is the executable unit wrapped by a task. The scheduler calls Run
// exactly once per dispatch and never inspects the arguments.
type WorkItem interface {
	Run(ctx context.Context, args Args) (any, error)
}

// Func adapts a plain function to WorkItem.
type Func func(ctx context.Context, args Args) (any, error)

// Run calls f.
func (f Func) Run(ctx context.Context, args Args) (any, error) {
	return f(ctx, args)
}

var converter = newConverter()

func newConverter() *conv.Converter {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	return conv.NewConverter(options)
}

// TypedFunc returns a work item that binds the argument bundle into I before
// calling fn.
func TypedFunc[I any](fn func(ctx context.Context, input *I) (any, error)) WorkItem {
	return Func(func(ctx context.Context, args Args) (any, error) {
		input := new(I)
		if err := converter.Convert(map[string]any(args), input); err != nil {
			return nil, fmt.Errorf("failed to bind args to %T: %w", input, err)
		}
		return fn(ctx, input)
	})
}
