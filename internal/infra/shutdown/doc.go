// Package shutdown coordinates graceful process termination.
//
// The server registers one hook per component (HTTP listener, clock
// ticker, config watcher, store) and then blocks in Wait:
//
//	h := shutdown.NewHandler(15*time.Second, logger)
//	h.OnShutdown("store", store.Close)
//	err := h.Wait(ctx)
package shutdown
