package preference

import "time"

// Preference is the preferences table row.
type Preference struct {
	ClientID  string `gorm:"primaryKey;size:64"`
	Theme     string `gorm:"not null;size:8"`
	Fiat      string `gorm:"not null;size:8"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the Preference model.
func (Preference) TableName() string {
	return "preferences"
}
