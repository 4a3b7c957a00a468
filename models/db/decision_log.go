package dbmodels

import (
	"time"

	"barangay-services-backend/models"
)

// DecisionLog is the append-only audit of lifecycle transitions. Rows are never
// updated once written.
type DecisionLog struct {
	BaseModel
	RequestID   string               `gorm:"type:varchar(36);index"`
	ActorID     string               `gorm:"type:varchar(36)"`
	Actor       *User                `gorm:"foreignKey:ActorID"`
	FromStatus  models.RequestStatus `gorm:"type:varchar(20)"`
	ToStatus    models.RequestStatus `gorm:"type:varchar(20)"`
	Reason      string
	Notes       string
	ArtifactURL string `gorm:"type:varchar(500)"`
	DecidedAt   time.Time
}
