package main

import (
	"curator/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; real config comes from viper + environment.
	_ = godotenv.Load()

	cmd.Execute()
}
