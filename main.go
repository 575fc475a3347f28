package main

import (
	"log"

	"github.com/UGZ6/in-shadow-trader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("could not start application: %v", err)
	}
}
