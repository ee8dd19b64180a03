package llm

import "time"

// startProgress calls report with the elapsed time on every tick until the returned
// stop function is called. stop blocks until the reporter goroutine has exited,
// so no report happens after stop returns.
func startProgress(start time.Time, interval time.Duration, report func(time.Duration)) (stop func()) {
	if interval <= 0 || report == nil {
		return func() {}
	}
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case now := <-ticker.C:
				select {
				case <-quit:
					return
				default:
				}
				report(now.Sub(start))
			}
		}
	}()
	return func() {
		close(quit)
		<-done
	}
}
