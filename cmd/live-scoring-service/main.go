// Package main is the entry point for live-scoring-service (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/clubgreens/live-scoring-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
