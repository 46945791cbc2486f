package loanstats

import (
	"hash/fnv"
	"math/rand"
)

// Stats holds the loan rank and cumulative loan count for one title
type Stats struct {
	Rank  int `json:"rank"`
	Count int `json:"count"`
}

// Provider supplies loan statistics per book title
type Provider interface {
	StatsFor(title string) Stats
}

// Seeded is a placeholder provider. It derives stats from a hash of the
// title, so the same title always yields the same pair: rank in [1,50],
// count in [1,300].
type Seeded struct{}

// NewSeeded returns the deterministic placeholder provider
func NewSeeded() *Seeded {
	return &Seeded{}
}

// StatsFor derives loan stats from the title hash
func (s *Seeded) StatsFor(title string) Stats {
	h := fnv.New64a()
	h.Write([]byte(title))
	r := rand.New(rand.NewSource(int64(h.Sum64())))
	return Stats{
		Rank:  1 + r.Intn(50),
		Count: 1 + r.Intn(300),
	}
}
