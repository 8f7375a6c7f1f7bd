// Command sweep-spotlights runs one expiry sweep and exits. Meant for
// cron setups where the API's background sweeper is disabled.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"marketplace-spotlight-api/config"
	"marketplace-spotlight-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()
	config.InitRedis()

	var listingID int
	flag.IntVar(&listingID, "listing-id", 0, "sweep a single listing instead of all lapsed spotlights (optional)")
	flag.Parse()

	sweeper := services.NewSpotlightSweeper(nil, nil)
	ctx := context.Background()

	if listingID > 0 {
		expired, err := sweeper.SweepListing(ctx, listingID)
		if err != nil {
			log.Fatalf("sweep failed for listing %d: %v", listingID, err)
		}
		if expired {
			fmt.Printf("Spotlight on listing %d expired.\n", listingID)
		} else {
			fmt.Printf("Nothing to expire on listing %d.\n", listingID)
		}
		return
	}

	count, err := sweeper.SweepExpired(ctx)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	fmt.Printf("Expired %d spotlight(s).\n", count)
}
