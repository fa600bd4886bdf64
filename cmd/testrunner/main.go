package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lawnchairsociety/opendelve/test"
)

func main() {
	serverAddr := flag.String("addr", "ws://localhost:4443/ws", "delved WebSocket endpoint")
	seed := flag.Int64("seed", 42, "Dungeon seed every scenario connects with")
	verbose := flag.Bool("v", false, "Verbose output - show detailed actions for each test")
	flag.Parse()

	test.Verbose = *verbose

	fmt.Printf("Running integration tests against %s (seed %d)\n", *serverAddr, *seed)
	fmt.Println("Make sure delved is running!")
	if *verbose {
		fmt.Println("Verbose mode enabled - showing detailed test actions")
	}
	fmt.Println()

	results := test.RunAllTests(*serverAddr, *seed)
	test.PrintResults(results)

	for _, result := range results {
		if !result.Passed {
			os.Exit(1)
		}
	}
}
