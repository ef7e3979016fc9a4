package models

import (
	"log"

	"github.com/thurasoft/stockledger_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Organization{}, &Branch{}, &User{},
		&Item{},
		&OpeningStock{}, &ClosingStock{},
		&Restocking{}, &Sale{}, &WasteSpoilage{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
