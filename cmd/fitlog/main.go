// The fitlog command runs the exercise tracker REST service.
package main

import (
	"log"

	"github.com/patric-chuzhbe/fitlog/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize the application: %v", err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}
