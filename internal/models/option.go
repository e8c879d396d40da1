package models

import (
	"encoding/json"
	"time"
)

// Option is one entry of the expiring key-value relay between the
// submission webhook and the delivery channels.
type Option struct {
	Name      string     `gorm:"column:name;type:varchar(255);primaryKey" json:"name"`
	Value     JSONValue  `gorm:"column:value;type:jsonb" json:"value"`
	ExpiresAt *time.Time `gorm:"column:expires_at;type:timestamp;index" json:"expiresAt,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Option) TableName() string {
	return "formlayer_options"
}

// Expired reports whether the option has an expiry at or before now.
func (o *Option) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && !o.ExpiresAt.After(now)
}

// Decode unmarshals the stored value into v.
func (o *Option) Decode(v any) error {
	return json.Unmarshal([]byte(o.Value), v)
}
