package utils

import "gorm.io/gorm"

// DBOption composes gorm query fragments so repositories can assemble
// filters declaratively.
type DBOption func(*gorm.DB) *gorm.DB

func ApplyOptions(db *gorm.DB, opts ...DBOption) *gorm.DB {
	for _, opt := range opts {
		db = opt(db)
	}
	return db
}

func WithWhere(query interface{}, args ...interface{}) DBOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

func WithLimit(limit int) DBOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(limit)
	}
}

func WithOrder(value interface{}) DBOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(value)
	}
}
