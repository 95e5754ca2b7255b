package main

import (
	"fmt"
	"os"

	"github.com/schooldesk/mcq-bot/internal/app"
)

func main() {
	fmt.Println("app starting")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/values.yaml"
	}

	a, err := app.NewApp(configPath)
	if err != nil {
		panic(err)
	}

	if err := a.ListenAndServe(); err != nil {
		panic(err)
	}
}
