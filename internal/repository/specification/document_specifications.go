package specification

import "gorm.io/gorm"

// ByStatus filters documents by lifecycle status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByCid filters documents by content identifier
type ByCid struct {
	Cid string
}

func (s ByCid) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("cid = ?", s.Cid)
}
