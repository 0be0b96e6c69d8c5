package historydb

import (
	"fmt"
	"time"
)

// MessageRecord is one anchoring attempt: the message bytes, the transaction
// that carried them, and how the broadcast resolved. A "timeout" outcome does
// not mean the transaction is dead, only that confirmation never arrived
// within the bound.
type MessageRecord struct {
	ID        uint   `gorm:"primaryKey"`
	TxID      string `gorm:"index"`
	Network   string
	Payload   string // hex-encoded message bytes
	Fee       int64  // satoshis
	Outcome   string // "success", "error", "timeout"
	Detail    string // error cause, if any
	CreatedAt time.Time
}

// SaveMessageRecord persists one anchoring attempt.
func SaveMessageRecord(rec *MessageRecord) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := DB.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to save message record: %v", err)
	}
	return nil
}

// ListMessageRecords returns the most recent anchoring attempts, newest
// first.
func ListMessageRecords(limit int) ([]MessageRecord, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	var records []MessageRecord
	query := DB.Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list message records: %v", err)
	}
	return records, nil
}
