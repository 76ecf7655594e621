package main

import (
	"embed"
	"log"

	_ "shorts-web/docs"
	"shorts-web/internal/app"
)

//go:embed web
var webFS embed.FS

// @title Shorts Web API
// @version 1.0
// @description Web frontend for the shorts service. Relays the browser to the backend REST API with the session credential.

// @BasePath /

// @securityDefinitions.apikey SessionCookie
// @in header
// @name Cookie
// @description Session cookie set by the OAuth callback

func main() {
	if err := app.Run(webFS); err != nil {
		log.Fatal(err)
	}
}
