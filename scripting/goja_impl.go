package scripting

import (
	"context"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/wudi/geomkit/observability"
)

type Option func(*GojaEngine)

func WithLogger(l observability.Logger) Option {
	return func(e *GojaEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

type GojaEngine struct {
	vm     *goja.Runtime
	logger observability.Logger
}

func NewEngine(opts ...Option) *GojaEngine {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	e := &GojaEngine{vm: vm, logger: observability.NopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	start := time.Now()
	val, err := e.vm.RunString(script)
	e.logger.Debug("script finished",
		observability.Any(observability.MetricScriptDuration, time.Since(start)),
		observability.Error("error", err))
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

func (e *GojaEngine) RegisterGeometry(host Host) error {
	printFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			parts[i] = a.String()
		}
		if host != nil {
			host.Print(strings.Join(parts, " "))
		}
		return goja.Undefined()
	}
	console := e.vm.NewObject()
	if err := console.Set("log", printFn); err != nil {
		return err
	}
	if err := e.vm.Set("console", console); err != nil {
		return err
	}
	if err := e.vm.Set("print", printFn); err != nil {
		return err
	}
	return registerBindings(e.vm)
}
