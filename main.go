package main

import (
	"os"

	"github.com/tanpawarit/Financial-Swarm-Analyst/cmd"
	_ "github.com/tanpawarit/Financial-Swarm-Analyst/pkg/logger/autoload"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
