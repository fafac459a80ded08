package hardware_models

import "time"

// HistoryTimeLayout is the fixed layout of created_at in history listings
const HistoryTimeLayout = "2006-01-02 15:04:05"

// HistoryRecord is an archived interval of unchanged readings
type HistoryRecord struct {
	ID        int64     `json:"id" db:"id"`
	IDAlat    string    `json:"idalat" db:"idalat"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Duration  int       `json:"duration" db:"duration"`
}

// HistoryEntry is the projection returned by the history endpoint
type HistoryEntry struct {
	CreatedAt string `json:"created_at"`
	Duration  int    `json:"duration"`
}

// Entry formats the record for the history listing
func (h HistoryRecord) Entry() HistoryEntry {
	return HistoryEntry{
		CreatedAt: h.CreatedAt.Format(HistoryTimeLayout),
		Duration:  h.Duration,
	}
}
