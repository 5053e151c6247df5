package main

import (
	"log"
	"os"

	"github.com/taskmaster/todo/cmd/api/commands"
)

// @title Todo API
// @version 1.0
// @description Multi-user to-do list backend with bearer-token authentication.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
