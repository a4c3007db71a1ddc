package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"scene-editor/internal/commands"
	"scene-editor/internal/config"
	"scene-editor/internal/logger"
)

func main() {
	prefs, _ := config.Load(config.DefaultPath)
	logger.Setup(prefs.LogLevel)

	app, err := newApp(prefs)
	if err != nil {
		log.Fatal(err)
	}

	reg := commands.NewRegistry()
	app.registerCommands(reg)
	if err := reg.Execute(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
