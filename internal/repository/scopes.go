package repository

import (
	"gorm.io/gorm"
)

// PaginationScope returns a GORM scope that applies limit and offset.
func PaginationScope(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}
}
