package main

import (
	"os"

	"github.com/reunipet/reunipet/petservice"
)

func main() {
	if err := petservice.Run(); err != nil {
		os.Exit(1)
	}
}
