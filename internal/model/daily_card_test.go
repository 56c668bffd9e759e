package model

import (
	"testing"
	"time"
)

func TestDailyCardMaxScore(t *testing.T) {
	c := &DailyCard{}
	if got := c.MaxScore(); got != 120 {
		t.Fatalf("MaxScore() = %v, want 120", got)
	}
}

func TestDailyCardScoreRoundTrip(t *testing.T) {
	c := &DailyCard{}
	for i, f := range ScoreFields {
		c.SetScore(f, float64(i)+0.5)
	}
	for i, f := range ScoreFields {
		if got := c.Score(f); got != float64(i)+0.5 {
			t.Fatalf("Score(%q) = %v, want %v", f, got, float64(i)+0.5)
		}
	}
	c.SetScore("no_such_field", 99)
	if got := c.Score("no_such_field"); got != 0 {
		t.Fatalf("Score of unknown field = %v, want 0", got)
	}
}

func TestDailyCardTotalAndPercentage(t *testing.T) {
	c := &DailyCard{Quran: 10, Taraweeh: 7.5, ExtraWork: 2.5}
	if got := c.TotalScore(); got != 20 {
		t.Fatalf("TotalScore() = %v, want 20", got)
	}
	// 20 / 120 = 16.666...%, rounded to one decimal.
	if got := c.Percentage(); got != 16.7 {
		t.Fatalf("Percentage() = %v, want 16.7", got)
	}
}

func TestDailyCardResponseShape(t *testing.T) {
	desc := "charity drive"
	c := &DailyCard{
		ID:                   5,
		UserID:               9,
		Date:                 time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Quran:                8,
		ExtraWorkDescription: &desc,
	}
	resp := c.Response()
	if resp["date"] != "2026-03-01" {
		t.Fatalf("date = %v, want 2026-03-01", resp["date"])
	}
	if resp["total_score"] != 8.0 {
		t.Fatalf("total_score = %v, want 8", resp["total_score"])
	}
	if resp["max_score"] != 120.0 {
		t.Fatalf("max_score = %v, want 120", resp["max_score"])
	}
	for _, f := range ScoreFields {
		if _, ok := resp[f]; !ok {
			t.Fatalf("response missing score field %q", f)
		}
	}
}
