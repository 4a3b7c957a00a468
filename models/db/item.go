package dbmodels

// Item is a loanable community item. Available flips to false while an
// approved loan holds it and back to true when the loan completes.
type Item struct {
	BaseModel
	BarangayID  string `gorm:"type:varchar(36);index"`
	OwnerID     string `gorm:"type:varchar(36)"`
	Title       string `gorm:"type:varchar(200)"`
	Description string
	Condition   string `gorm:"type:varchar(20)"`
	Available   bool
	MaxLoanDays int
}
