package service_test

import (
	"context"
	"fmt"
	"log"

	"github.com/patric-chuzhbe/fitlog/internal/db/memorystorage"
	"github.com/patric-chuzhbe/fitlog/internal/service"
)

func ExampleService_CreateOrGetUser() {
	theStorage, err := memorystorage.New()
	if err != nil {
		log.Fatal(err)
	}

	svc := service.New(theStorage)

	usr, err := svc.CreateOrGetUser(context.Background(), "alice")
	if err != nil {
		log.Fatal(err)
	}

	// Repeating the call returns the same record instead of failing.
	again, err := svc.CreateOrGetUser(context.Background(), "alice")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(usr.Username, usr.ID == again.ID)

	// Output:
	// alice true
}

func ExampleService_GetLogs() {
	theStorage, err := memorystorage.New()
	if err != nil {
		log.Fatal(err)
	}

	svc := service.New(theStorage)

	usr, err := svc.CreateOrGetUser(context.Background(), "alice")
	if err != nil {
		log.Fatal(err)
	}

	if _, err := svc.AppendExercise(context.Background(), usr.ID, "run", "30", "2023-01-15"); err != nil {
		log.Fatal(err)
	}

	logView, err := svc.GetLogs(context.Background(), usr.ID, "", "", "")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(logView.Count)
	fmt.Println(logView.Log[0].Description, logView.Log[0].Duration, logView.Log[0].Date)

	// Output:
	// 1
	// run 30 Sun Jan 15 2023
}
