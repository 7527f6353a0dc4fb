package retry

import (
	"context"
	"errors"
	"reflect"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/capmarket/capmarket/build"
)

var log = logging.Logger("retry")

func errorIsIn(err error, errorTypes []error) bool {
	for _, etype := range errorTypes {
		tmp := reflect.New(reflect.PointerTo(reflect.ValueOf(etype).Elem().Type())).Interface()
		if errors.As(err, tmp) {
			return true
		}
	}
	return false
}

// Retry calls f up to attempts times, doubling the backoff after every
// failure. Only errors matching one of errorTypes are retried; a nil
// errorTypes retries every error.
func Retry[T any](ctx context.Context, attempts int, backoff time.Duration, errorTypes []error, f func() (T, error)) (result T, err error) {
	for i := 0; i < attempts; i++ {
		if i > 0 {
			log.Infow("retrying after error", "attempt", i+1, "error", err)
			select {
			case <-build.Clock.After(backoff):
			case <-ctx.Done():
				return result, ctx.Err()
			}
			backoff *= 2
		}
		result, err = f()
		if err == nil {
			return result, nil
		}
		if errorTypes != nil && !errorIsIn(err, errorTypes) {
			return result, err
		}
	}
	log.Errorf("Failed after %d attempts, last error: %s", attempts, err)
	return result, err
}
