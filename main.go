package main

import (
	"log"
	"os"

	"github.com/TFMV/tread/cmd"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// A panic anywhere below must not look like a clean exit.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v", r)
			os.Exit(1)
		}
	}()

	if err := cmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
