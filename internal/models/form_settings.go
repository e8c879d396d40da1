package models

import "time"

type FormSettings struct {
	FormID           string    `gorm:"column:form_id;type:varchar(64);primaryKey" json:"formId"`
	FormTitle        string    `gorm:"column:form_title;type:varchar(255)" json:"formTitle"`
	EventName        string    `gorm:"column:event_name;type:varchar(255)" json:"eventName"`
	ExcludedFieldIDs string    `gorm:"column:excluded_field_ids;type:text" json:"excludedFieldIds"`
	Debug            bool      `gorm:"column:debug;type:boolean;default:false" json:"debug"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (FormSettings) TableName() string {
	return "formlayer_form_settings"
}
