package main

import (
	"fmt"
	"os"
	exit "os"
)

func helper() {
	os.Exit(2)
}

func main() {
	fmt.Println("start")
	defer fmt.Println("never printed")

	func() {
		os.Exit(3)
	}()

	exit.Exit(1) // want "direct os.Exit call in main function"
	os.Exit(0)   // want "direct os.Exit call in main function"
}
