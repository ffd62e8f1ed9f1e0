package main

import (
	"os"

	"github.com/adanyl0v/go-scrum/internal/app"
)

func main() {
	app.InitDefaultLogger()

	err := app.NewRootCommand().Execute()
	if err != nil {
		app.Logger().Error().
			Err(err).
			Msg("failed to execute command")
		os.Exit(1)
	}
}
