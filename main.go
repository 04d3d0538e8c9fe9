package main

import (
	"log"

	"github.com/lit1088/gitqlient/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("gitqlient: %v", err)
	}
}
