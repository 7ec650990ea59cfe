package main

import (
	"log"

	"github.com/joho/godotenv"

	"talentmatch/cmd"
)

func main() {
	// A missing .env file is fine; env vars may come from the environment.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
