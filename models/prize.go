package models

import "time"

// PrizeSplit maps a rank position to its share of the prize pool. Each
// tournament gets the default split table at creation time; splits are sized
// independently of how many scores end up being submitted.
type PrizeSplit struct {
	TournamentID int     `json:"tournament_id"`
	RankPosition int     `json:"rank_position"`
	Percentage   float64 `json:"percentage"`
}

// Prize is written once by prize distribution and never mutated afterwards.
type Prize struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	UserID       int       `json:"user_id"`
	RankPosition int       `json:"rank_position"`
	Percentage   float64   `json:"percentage"`
	Amount       float64   `json:"amount"`
	Paid         bool      `json:"paid"`
	CreatedAt    time.Time `json:"created_at"`
}

// DefaultPrizeSplits is the stock percentage table seeded for every new
// tournament: 35/20/15/10/7 for the podium ranks, then 2% each for ranks 6-10.
func DefaultPrizeSplits() []PrizeSplit {
	splits := []PrizeSplit{
		{RankPosition: 1, Percentage: 35},
		{RankPosition: 2, Percentage: 20},
		{RankPosition: 3, Percentage: 15},
		{RankPosition: 4, Percentage: 10},
		{RankPosition: 5, Percentage: 7},
	}
	for rank := 6; rank <= 10; rank++ {
		splits = append(splits, PrizeSplit{RankPosition: rank, Percentage: 2})
	}
	return splits
}
