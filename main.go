package main

import (
	"log"

	"github.com/avelinas/repomatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
