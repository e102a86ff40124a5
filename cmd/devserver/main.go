package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/accountlink/internal/devserver"
	"github.com/dmitrijs2005/accountlink/internal/devserver/config"
	"github.com/dmitrijs2005/accountlink/internal/logging"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stdout)

	app, err := devserver.NewApp(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
