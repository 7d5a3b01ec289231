// Package pagination reassembles paginated search results into one ordered
// collection.
//
// The SCJN search endpoint reports the total number of matching documents
// on every page but offers no count-only query. The engine therefore:
//   - Probes page 0 with size 1 to learn the total
//   - Derives the page count from the requested page size
//   - Submits one fetch task per page to a ratelimit.Gate
//   - Reports progress as pages complete (in any order)
//   - Concatenates pages by index, never by completion order
//
// Example usage:
//
//	gate, _ := ratelimit.NewGate(ratelimit.DefaultGateConfig(), logger)
//	engine := pagination.NewEngine(fetchPage, gate, logger)
//	items, err := engine.GetAll(ctx, filter, pagination.DefaultOptions())
//
// A failing page aborts the whole run; partial results are never returned.
// Retrying transient failures is the fetch function's job.
package pagination
