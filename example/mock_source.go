package main

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jpalmerr/distroboard/source"
)

// seedItems returns the demo endpoints.
func seedItems(now time.Time) []source.Item {
	ts := float64(now.UnixMilli()) / 1000
	return []source.Item{
		{Domain: "cdn1.demo.example", Name: "Primary", Region: "eu-west-1", PlaylistFresh: true, DistroOpen: true, ReplicatedAt: ts},
		{Domain: "cdn2.demo.example", Name: "Secondary", Region: "eu-west-1", PlaylistFresh: true, DistroOpen: true, ReplicatedAt: ts},
		{Domain: "cdn3.demo.example", Name: "Americas", Region: "us-east-1", PlaylistFresh: false, DistroOpen: true, ReplicatedAt: ts},
		{Domain: "cdn4.demo.example", Name: "Asia Pacific", Region: "ap-southeast-2", PlaylistFresh: true, DistroOpen: false, ReplicatedAt: ts},
	}
}

// simulateReplication flips playlist freshness on random endpoints, the way
// an upstream packager would, until ctx is cancelled. Each change is stamped
// with a new replication time.
func simulateReplication(ctx context.Context, src *source.MemorySource, domains []string) {
	for {
		// next change in 10-30 seconds
		wait := time.Duration(10+rand.Intn(21)) * time.Second
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		domain := domains[rand.Intn(len(domains))]
		it, ok := src.Get(domain)
		if !ok {
			continue
		}
		it.PlaylistFresh = !it.PlaylistFresh
		it.ReplicatedAt = float64(time.Now().UnixMilli()) / 1000
		src.Put(it)

		slog.Info("playlist change", "domain", domain, "fresh", it.PlaylistFresh)
	}
}
