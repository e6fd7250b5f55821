package models

import "gorm.io/gorm"

func AutoMigrateAll(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Project{},
		&Order{},
		&Coupon{},
		&Post{},
		&ChatSession{},
		&ChatMessage{},
		&AutoResponse{},
	)
	if err != nil {
		return err
	}
	return nil
}
