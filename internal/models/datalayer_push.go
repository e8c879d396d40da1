package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/formlayer/internal/utils"
)

// DataLayerPush is the server-side record of one submission applied to the
// analytics queue.
type DataLayerPush struct {
	ID           string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	SubmissionID string    `gorm:"column:submission_id;type:varchar(255);uniqueIndex" json:"submissionId"`
	FormID       string    `gorm:"column:form_id;type:varchar(64);index" json:"formId"`
	Event        string    `gorm:"column:event;type:varchar(255)" json:"event"`
	Channel      string    `gorm:"column:channel;type:varchar(50)" json:"channel"`
	Payload      JSONMap   `gorm:"column:payload;type:jsonb" json:"payload"`
	PushedAt     time.Time `gorm:"column:pushed_at;type:timestamp;default:current_timestamp" json:"pushedAt"`
}

func (DataLayerPush) TableName() string {
	return "formlayer_datalayer_pushes"
}

func (m *DataLayerPush) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("dlp", 16)
	}
	return nil
}
