package model

import "time"

// KVEntryModel is the GORM-specific struct for the 'kv_entries' table.
// Each row holds one JSON record list of the key-value store.
type KVEntryModel struct {
	Key       string `gorm:"type:varchar(255);primaryKey"`
	Value     []byte `gorm:"type:bytea;not null"`
	Version   int64  `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (KVEntryModel) TableName() string {
	return "kv_entries"
}
