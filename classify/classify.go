// Package classify implements the pure status-code classification rules
// that ParallelExecutor and IntegrationExecutor use to decide whether a
// failed call should be retried, should evict its credential, or should
// drop its model task outright.
package classify

// Classification is the outcome of classifying an HTTP-ish status code.
//
//   - Permanent: do not retry this (key, model) pair for the rest of the
//     request.
//   - EvictKey: remove the key from the pool globally.
//   - DropModel: mark the model task failed without further attempts,
//     independent of the key pool.
type Classification struct {
	Permanent bool
	EvictKey  bool
	DropModel bool
}

// Status classifies an observed HTTP status code (0 or any non-HTTP
// transport failure should be passed as 500, matching model.ApiError's
// convention of defaulting to 500 when no status is available).
func Status(status int) Classification {
	switch {
	case status == 401 || status == 403:
		return Classification{Permanent: true, EvictKey: true}
	case status == 404:
		return Classification{Permanent: true, DropModel: true}
	case status == 429:
		return Classification{}
	case status >= 400 && status < 500:
		return Classification{Permanent: true, DropModel: true}
	default:
		// 5xx and anything else (including network failures normalised to
		// 500) are treated as transient.
		return Classification{}
	}
}
