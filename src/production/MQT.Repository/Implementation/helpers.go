package implementation

import (
	"encoding/json"
	"errors"
	"fmt"

	interfaces "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Interfaces"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const pqUniqueViolation = "23505"

// ensurePayloadNotNull ensures payload is not nil to prevent null JSON issues
func ensurePayloadNotNull(payload map[string]interface{}) map[string]interface{} {
	if payload == nil {
		return make(map[string]interface{})
	}
	return payload
}

func marshalPayload(payload map[string]interface{}) (string, error) {
	b, err := json.Marshal(ensurePayloadNotNull(payload))
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return string(b), nil
}

func unmarshalPayload(raw []byte) (map[string]interface{}, error) {
	payload := make(map[string]interface{})
	if len(raw) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// isUniqueViolation reports whether err is a unique/primary key violation
// from either supported driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// translateWriteError maps driver constraint errors onto repository errors
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", interfaces.ErrDuplicate, err)
	}
	return err
}

// User Repository
// ├── Create() - insert, unique username/email
// └── GetByEmail() - login lookup

// Alat Repository
// ├── Create() - insert, unique idalat
// ├── Exists() - pre-insert check
// └── ListByOwner() - nama_anak/idalat per owner

// Monitoring Repository (live buffer)
// ├── Insert() - one reading
// └── Latest() - newest by updated_at

// History Repository
// ├── Archive() - earliest reading -> history row, clear buffer (one tx)
// └── ListByAlat() - ascending by created_at
