package domain

import "time"

// StoreStatus is an append-only log of open/closed snapshots.
// The most recent row by UpdatedAt is the effective status.
type StoreStatus struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	IsOpen    bool      `json:"is_open" form:"is_open"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
	UpdatedBy int64     `json:"updated_by,string"`
}

func (StoreStatus) TableName() string {
	return "store_status"
}
