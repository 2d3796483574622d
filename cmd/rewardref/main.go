package main

import (
	"fmt"
	"os"
	"strconv"

	"crowdfund/internal/crowdfund"
)

// Prints the content reference and display name a reward token for
// (project, account) would carry.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: rewardref <project-id> <account> [project-name]")
		os.Exit(1)
	}

	projectID, err := strconv.ParseUint(os.Args[1], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing project id: %v\n", err)
		os.Exit(1)
	}

	ref, err := crowdfund.RewardReference(projectID, os.Args[2])
	if err != nil {
		fmt.Printf("Error deriving reference: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("unit: %s\n", crowdfund.RewardUnitName)
	if len(os.Args) > 3 {
		fmt.Printf("name: %s\n", crowdfund.RewardName(os.Args[3]))
	}
	fmt.Printf("ref:  %s\n", ref)
}
