package main

import (
	"backend/internal/app/ds"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := "host=localhost user=postgres password=password dbname=league_db port=5433 sslmode=disable TimeZone=Europe/Moscow"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	var teams []ds.Team
	err = db.Find(&teams).Error
	if err != nil {
		log.Fatal("Failed to get teams:", err)
	}

	fmt.Println("Teams in database:")
	for _, team := range teams {
		logoURL := "NULL"
		if team.LogoURL != nil {
			logoURL = *team.LogoURL
		}
		fmt.Printf("ID: %d, Name: %s, CaptainID: %d, LogoURL: %s\n", team.ID, team.Name, team.CaptainID, logoURL)
	}

	var requests []ds.ChangeRequest
	err = db.Order("created_at DESC").Limit(10).Find(&requests).Error
	if err != nil {
		log.Fatal("Failed to get requests:", err)
	}

	fmt.Println("Recent change requests:")
	for _, req := range requests {
		fmt.Printf("ID: %s, Type: %s, Status: %s, Attempts: %d\n", req.ID, req.RequestType, req.Status, req.ProcessingAttempts)
	}
}
