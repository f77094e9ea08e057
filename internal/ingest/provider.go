package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int   `json:"sessions_received"`
	SetsReceived     int   `json:"sets_received"`
	SetsInserted     int64 `json:"sets_inserted"`
	SetsSkipped      int64 `json:"sets_skipped"`
	WarmupsSkipped   int   `json:"warmups_skipped"`
	Exercises        int   `json:"exercises"`

	Message string `json:"message,omitempty"`
}

// Add accumulates another result, as when importing several files.
func (r *Result) Add(o *Result) {
	if o == nil {
		return
	}
	r.SessionsReceived += o.SessionsReceived
	r.SetsReceived += o.SetsReceived
	r.SetsInserted += o.SetsInserted
	r.SetsSkipped += o.SetsSkipped
	r.WarmupsSkipped += o.WarmupsSkipped
	r.Exercises += o.Exercises
}
