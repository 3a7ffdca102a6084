package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/rentcontroldept/rcd-api/api/handlers"

	"go.uber.org/zap"

	"github.com/rentcontroldept/rcd-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	err := a.Initialize() //initialize database, router and background jobs
	if err != nil {
		log.Fatal(err)
	}

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("rcd-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
