package hardware_models

import "time"

// MonitoringReading is one live sensor reading buffered for an alat
type MonitoringReading struct {
	ID        int64                  `json:"id" db:"id"`
	ReadingID string                 `json:"reading_id,omitempty" db:"reading_id"`
	IDAlat    string                 `json:"idalat" db:"idalat"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// RawReading is an ingested message as archived in the raw sink
type RawReading struct {
	IDAlat     string                 `bson:"idalat" json:"idalat"`
	Topic      string                 `bson:"topic,omitempty" json:"topic,omitempty"`
	Payload    map[string]interface{} `bson:"payload" json:"payload"`
	ReceivedAt time.Time              `bson:"received_at" json:"received_at"`
}

// ReadingWithTopic is an MQTT message queued by the ingestor
type ReadingWithTopic struct {
	ReadingID  string
	IDAlat     string
	Topic      string
	Payload    map[string]interface{}
	ReceivedAt time.Time
}
