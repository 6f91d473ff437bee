package main

import (
	"github.com/joho/godotenv"

	"orderload/cmd"
)

func main() {
	// Optional .env with ORDERLOAD_* settings; real environment
	// variables and flags take precedence.
	godotenv.Load()

	cmd.Execute()
}
