// Package async runs independent calls concurrently and collects their results in
// argument order.
package async

type Result[T any] struct {
	Data T
	Err  error
}

func Await[T any](ch <-chan Result[T]) (T, error) {
	res := <-ch
	return res.Data, res.Err
}

// AwaitAll waits for every channel. Results keep the order of chs; the error is
// the first non-nil one in that order.
func AwaitAll[T any](chs ...<-chan Result[T]) ([]T, error) {
	results := make([]T, len(chs))
	errs := make([]error, len(chs))

	for i, ch := range chs {
		results[i], errs[i] = Await(ch)
	}

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func Go[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1) // buffered so sender never blocks
	go func() {
		defer close(ch)
		v, err := fn()
		ch <- Result[T]{Data: v, Err: err}
	}()
	return ch
}

// Map applies fn to every item with at most limit calls in flight.
// A limit below 1 means one call at a time.
func Map[I, T any](items []I, limit int, fn func(I) (T, error)) ([]T, error) {
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	chs := make([]<-chan Result[T], len(items))
	for i, item := range items {
		item := item
		sem <- struct{}{}
		chs[i] = Go(func() (T, error) {
			defer func() { <-sem }()
			return fn(item)
		})
	}
	return AwaitAll(chs...)
}
