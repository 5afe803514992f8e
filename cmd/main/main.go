package main

import (
	"os"

	"github.com/BartekS5/movies-etl/internal/cli"
	"github.com/BartekS5/movies-etl/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using system environment variables")
	}

	rootCmd := cli.NewRootCmd()
	err := rootCmd.Execute()
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
