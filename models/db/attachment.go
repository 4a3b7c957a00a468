package dbmodels

// EvidenceAttachment ties one stored blob to the request it supports and the
// requirement category it satisfies.
type EvidenceAttachment struct {
	BaseModel
	RequestID        string `gorm:"type:varchar(36);index"`
	UploaderID       string `gorm:"type:varchar(36)"`
	CategoryName     string `gorm:"type:varchar(200)"`
	OriginalFileName string `gorm:"type:varchar(255)"`
	StoredName       string `gorm:"type:varchar(255)"`
	Size             int64
	ContentType      string `gorm:"type:varchar(100)"`
}
