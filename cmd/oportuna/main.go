package main

import (
	"os"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/cmd/oportuna/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
