// Admin CLI for inspecting rooms and message volumes straight from the
// database, useful when debugging delivery problems in production.
package main

import (
	"fmt"
	"log"
	"os"

	"skillhub/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN is not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "rooms":
		listRooms(db)
	case "messages":
		if len(os.Args) < 3 {
			usage()
		}
		countMessages(db, os.Args[2])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin rooms | admin messages <roomKey>")
	os.Exit(2)
}

func listRooms(db *gorm.DB) {
	var rooms []models.ChatRoom
	if err := db.Order("created_at asc").Find(&rooms).Error; err != nil {
		log.Fatalf("failed to list rooms: %v", err)
	}
	for _, room := range rooms {
		var count int64
		db.Model(&models.ChatMessage{}).Where("room_id = ?", room.ID).Count(&count)
		fmt.Printf("%d\t%s\t%v\t%d messages\n", room.ID, room.RoomKey, []string(room.Participants), count)
	}
	fmt.Printf("%d rooms total\n", len(rooms))
}

func countMessages(db *gorm.DB, roomKey string) {
	var room models.ChatRoom
	if err := db.Where("room_key = ?", roomKey).First(&room).Error; err != nil {
		log.Fatalf("room %s not found: %v", roomKey, err)
	}
	var count int64
	if err := db.Model(&models.ChatMessage{}).Where("room_id = ?", room.ID).Count(&count).Error; err != nil {
		log.Fatalf("failed to count messages: %v", err)
	}
	fmt.Printf("room %s (id %d): %d messages\n", room.RoomKey, room.ID, count)
}
