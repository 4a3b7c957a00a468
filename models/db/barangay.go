package dbmodels

type Barangay struct {
	BaseModel
	Name         string `gorm:"type:varchar(200)"`
	Municipality string `gorm:"type:varchar(200)"`
	Province     string `gorm:"type:varchar(200)"`
}
