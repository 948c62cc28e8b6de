package main

import (
	"os"

	"github.com/scamshield/scamshield/rewriteservice"
)

func main() {
	if err := rewriteservice.Run(); err != nil {
		os.Exit(1)
	}
}
