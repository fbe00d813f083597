package collector

import (
	"context"
	"errors"
	"fmt"
)

// attemptFunc observes every provider attempt made by firstSuccess.
type attemptFunc func(provider string, err error)

// firstSuccess walks providers in order and returns the first result accepted
// by ok, together with the name of the provider that produced it. Each
// provider is tried at most once; an error or a rejected result moves on to
// the next. When every provider fails the joined errors are returned.
func firstSuccess[P Provider, T any](
	ctx context.Context,
	providers []P,
	call func(context.Context, P) (T, error),
	ok func(T) bool,
	observe attemptFunc,
) (T, string, error) {
	var zero T
	if len(providers) == 0 {
		return zero, "", fmt.Errorf("no providers configured: %w", ErrProviderUnavailable)
	}

	var errs []error
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		v, err := call(ctx, p)
		if err == nil && !ok(v) {
			err = fmt.Errorf("%s: %w", p.Name(), errEmptyResult)
		}
		if observe != nil {
			observe(p.Name(), err)
		}
		if err == nil {
			return v, p.Name(), nil
		}
		errs = append(errs, err)
	}
	return zero, "", errors.Join(errs...)
}
