package scanner

import (
	"fmt"
	"io"
	"net/http"

	"github.com/flowave-io/devconsole/internal/encoding/jsonx"
	"github.com/flowave-io/devconsole/pkg/log"
)

const maxBatchBytes = 4 << 20

// wireEvent is the JSON form pushed by the host.
type wireEvent struct {
	FullName string `json:"full_name"`
	Package  string `json:"package"`
	Caller   string `json:"caller"`
	Function string `json:"function"`
}

// Handler accepts POSTed batches of events, a JSON array of objects with
// full_name, package, caller and function, and feeds them to Observe. It
// answers with the number of events kept.
func (s *Scanner) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		batch, err := decodeBatch(r.Body)
		if err != nil {
			log.Warn("scanner: rejected batch:", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		kept := 0
		for _, ev := range batch {
			if s.Observe(Event(ev)) {
				kept++
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"kept":%d}`, kept)
	})
}

func decodeBatch(body io.Reader) ([]wireEvent, error) {
	var batch []wireEvent
	if err := jsonx.Decode(body, maxBatchBytes, &batch); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return batch, nil
}
