package healthz

import (
	"fmt"
	"net/http"
)

// Healthz is a HTTP handler for the /healthz endpoint. It responds with
// status 200 if all workers are alive and with 500 otherwise. The body
// lists the registered checks.
func Healthz(w http.ResponseWriter, r *http.Request) {
	ok, info := HealthInfo()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	for _, s := range info {
		fmt.Fprintln(w, s.String())
	}
}
