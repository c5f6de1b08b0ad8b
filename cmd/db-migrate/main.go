package main

import (
	"fmt"
	"os"

	"github.com/stagefront/concession_backend/config"
	"github.com/stagefront/concession_backend/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("schema migration complete")
}
