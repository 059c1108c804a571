package main

import (
	"log"

	"github.com/MrSnakeDoc/logbook/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ logbook failed to start: %v", err)
	}
}
