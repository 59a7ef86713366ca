package main

import (
	"log"

	"flvextract"
)

func main() {
	if err := flvextract.Run(); err != nil {
		log.Fatal(err)
	}
}
