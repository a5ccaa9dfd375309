package recorder

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how a dashboard run ended.
type Outcome string

const (
	OutcomeSuccess       Outcome = "SUCCESS"
	OutcomeSetupRequired Outcome = "SETUP_REQUIRED"
	OutcomeMissingTicker Outcome = "MISSING_TICKER"
	OutcomeInvalidTicker Outcome = "INVALID_TICKER"
	OutcomeFailed        Outcome = "FAILED"
)

// RunRecord holds the audit data of one dashboard run.
type RunRecord struct {
	ID          string
	Timestamp   time.Time
	Ticker      string
	Company     string
	Sector      string
	Source      string
	Rows        int
	LatestClose float64
	Change      float64
	ChangePct   float64
	High        float64
	Low         float64
	AvgVolume   float64
	Outcome     Outcome
	Note        string // error text for failed runs
}

// NewRunRecord starts a record with a fresh id.
func NewRunRecord(ticker string, at time.Time) *RunRecord {
	return &RunRecord{
		ID:        uuid.NewString(),
		Timestamp: at,
		Ticker:    ticker,
	}
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]RunRecord, error)
	Close() error
}
