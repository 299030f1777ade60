package fetcher

import (
	"context"

	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchRequest FetchRequest,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
