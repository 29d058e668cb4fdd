package fetch

import (
	"context"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
)

// Getter is the part of the API client slots need.
type Getter interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Endpoint builds a loader issuing an authenticated GET to path with the
// slot's filters as the query string.
func Endpoint[T any](client Getter, path string) Loader[T] {
	return func(ctx context.Context, filters Filters) (T, error) {
		var out T
		err := client.Do(ctx, apiclient.Get(path, filters.Query()), &out)
		return out, err
	}
}
