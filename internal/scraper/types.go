// internal/scraper/types.go
package scraper

// Actor run statuses reported by the vendor API.
const (
	RunStatusReady     = "READY"
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
	RunStatusAborted   = "ABORTED"
	RunStatusTimedOut  = "TIMED-OUT"
)

// actorRun is the vendor's view of one actor run.
type actorRun struct {
	ID               string `json:"id"`
	ActID            string `json:"actId"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
	StatusMessage    string `json:"statusMessage,omitempty"`
}

// runEnvelope wraps actor run responses.
type runEnvelope struct {
	Data actorRun `json:"data"`
}

// terminal reports whether the run has finished, successfully or not.
func (r actorRun) terminal() bool {
	switch r.Status {
	case RunStatusSucceeded, RunStatusFailed, RunStatusAborted, RunStatusTimedOut:
		return true
	}
	return false
}
