package dbmodels

import (
	"fmt"
	"strings"

	"barangay-services-backend/models"
)

// User rows are provisioned by the identity provider, the engine only reads
// them for names, emails and jurisdiction checks.
type User struct {
	BaseModel
	Email      string          `gorm:"type:varchar(100);index"`
	FirstName  string          `gorm:"type:varchar(100)"`
	LastName   string          `gorm:"type:varchar(100)"`
	Role       models.UserRole `gorm:"type:varchar(30)"`
	BarangayID string          `gorm:"type:varchar(36);index"`
	Active     bool
}

func (u User) GetFullName() string {
	return strings.TrimSpace(fmt.Sprintf("%v %v", u.FirstName, u.LastName))
}
