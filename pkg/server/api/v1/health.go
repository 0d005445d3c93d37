package v1

import (
	"net/http"
	"sync/atomic"
)

// ReadyzHandler responds 200 once the scheduler queues are started and
// accepting work, 503 before that and during shutdown. Load balancers
// and orchestrators should gate traffic on this endpoint.
func ReadyzHandler(ready *atomic.Bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready == nil || !ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
