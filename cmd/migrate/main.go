package main

import (
	"fmt"

	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
	fmt.Println("migration complete")
}
