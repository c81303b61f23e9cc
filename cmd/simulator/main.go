package main

import (
	"context"
	"log"
	"time"

	"paw-grove/simulator"
)

func main() {
	config := simulator.SimConfig{
		NumUsers:          10,
		SimulationTime:    10 * time.Minute,
		PostFrequency:     100.0,
		CommentFrequency:  60.0,
		PawvoteFrequency:  100.0,
		ReactionFrequency: 80.0,
		SaveFrequency:     30.0,
		BrowseFrequency:   200.0,
		PollPercentage:    0.15,
		DisconnectRate:    0.01,
		ReconnectRate:     0.05,
		ZipfS:             1.07,
		EngineURL:         "http://localhost:8080",
	}

	sim := simulator.NewSimulator(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime)
	defer cancel()

	log.Printf("Starting simulation with configuration:")
	log.Printf("- Engine URL: %s", config.EngineURL)
	log.Printf("- Number of users: %d", config.NumUsers)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Post frequency: %.2f posts/user/hour", config.PostFrequency)
	log.Printf("- Comment frequency: %.2f comments/user/hour", config.CommentFrequency)
	log.Printf("- Poll percentage: %.1f%%", config.PollPercentage*100)
	log.Printf("- Disconnect rate: %.2f", config.DisconnectRate)
	log.Printf("- Reconnect rate: %.2f", config.ReconnectRate)
	log.Printf("- Zipf parameter: %.2f", config.ZipfS)

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.GetMetrics()
	log.Printf("\nSimulation completed. Final metrics:")
	log.Printf("- Total users: %d", metrics.TotalUsers)
	log.Printf("- Active users at end: %d", metrics.ActiveUsers)
	log.Printf("- Total posts: %d (polls: %d)", metrics.TotalPosts, metrics.PollCount)
	log.Printf("- Total comments: %d", metrics.TotalComments)
	log.Printf("- Total pawvotes: %d", metrics.TotalPawvotes)
	log.Printf("- Total reactions: %d", metrics.TotalReactions)
	log.Printf("- Total saves: %d", metrics.TotalSaves)
	log.Printf("- Feed loads: %d", metrics.TotalFeedLoads)
	log.Printf("- Error count: %d", metrics.ErrorCount)
}
