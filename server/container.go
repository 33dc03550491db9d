package server

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Dependency injection container for the HTTP server.
// Providers are func(deps...) T or func(deps...) (T, error); their results are memoised.
type container struct {
	singletons map[reflect.Type]reflect.Value
	providers  map[reflect.Type]reflect.Value
	resolving  map[reflect.Type]bool
}

func newContainer(
	singletons map[reflect.Type]reflect.Value,
	providers map[reflect.Type]reflect.Value,
) *container {
	return &container{
		singletons: singletons,
		providers:  providers,
		resolving:  map[reflect.Type]bool{},
	}
}

func (c *container) resolve(t reflect.Type) (reflect.Value, error) {
	if v, ok := c.singletons[t]; ok {
		return v, nil
	}
	p, ok := c.providers[t]
	if !ok {
		return reflect.Value{}, fmt.Errorf("no provider for %v", t)
	}
	if c.resolving[t] {
		return reflect.Value{}, fmt.Errorf("dependency cycle at %v", t)
	}
	c.resolving[t] = true
	defer delete(c.resolving, t)

	v, err := c.call(p)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("provider for %v: %w", t, err)
	}
	c.singletons[t] = v // memoise
	return v, nil
}

// call resolves fn's arguments and invokes it.
func (c *container) call(fn reflect.Value) (reflect.Value, error) {
	args := make([]reflect.Value, fn.Type().NumIn())
	for i := range args {
		v, err := c.resolve(fn.Type().In(i))
		if err != nil {
			return v, err
		}
		args[i] = v
	}

	out := fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

// validFactory reports whether fn returns T or (T, error).
func validFactory(fn reflect.Type) bool {
	if fn.Kind() != reflect.Func {
		return false
	}
	switch fn.NumOut() {
	case 1:
		return true
	case 2:
		return fn.Out(1) == errorType
	}
	return false
}
