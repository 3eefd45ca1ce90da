// Command api serves the docmaster REST API.
package main

import (
	"log"
)

func main() {
	startWithDig()
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
