package tour

import (
	"testing"
	"time"
)

func at(lat, lng float64) *Point {
	return &Point{Type: "Point", Coordinates: []float64{lng, lat}}
}

func TestWithinAndDistances(t *testing.T) {
	// Los Angeles as the center
	lat, lng := 34.111745, -118.113491

	tours := []Tour{
		{ID: "near", Name: "The Sea Explorer", StartLocation: at(34.0, -118.2)},
		{ID: "far", Name: "The Snow Adventurer", StartLocation: at(40.6, -73.9)},
		{ID: "none", Name: "The Park Camper"},
	}

	got := Within(tours, lat, lng, RadiusRadians(200, Miles))
	if len(got) != 1 || got[0].ID != "near" {
		t.Fatalf("Within = %+v", got)
	}

	dist := Distances(tours, lat, lng, Kilometers)
	if len(dist) != 2 || dist[0].ID != "near" || dist[1].ID != "far" {
		t.Fatalf("Distances = %+v", dist)
	}
	// LA to NYC is roughly 3900 km
	if dist[1].Distance < 3800 || dist[1].Distance > 4000 {
		t.Fatalf("unexpected distance %v km", dist[1].Distance)
	}
}

func TestStats(t *testing.T) {
	tours := []Tour{
		{Difficulty: Easy, RatingsAverage: 4.8, RatingsQuantity: 10, Price: 400},
		{Difficulty: Easy, RatingsAverage: 4.6, RatingsQuantity: 4, Price: 200},
		{Difficulty: Difficult, RatingsAverage: 4.9, RatingsQuantity: 2, Price: 1000},
		{Difficulty: Medium, RatingsAverage: 3.0, RatingsQuantity: 1, Price: 50},
	}

	got := Stats(tours)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups (medium filtered out), got %+v", got)
	}
	easy := got[0]
	if easy.Difficulty != Easy || easy.NumTours != 2 || easy.NumRatings != 14 ||
		easy.AvgPrice != 300 || easy.MinPrice != 200 || easy.MaxPrice != 400 {
		t.Fatalf("unexpected easy stats %+v", easy)
	}
	if got[1].Difficulty != Difficult {
		t.Fatalf("expected difficult second, got %+v", got[1])
	}
}

func TestMonthlyPlan(t *testing.T) {
	d := func(y int, m time.Month) time.Time { return time.Date(y, m, 10, 9, 0, 0, 0, time.UTC) }

	tours := []Tour{
		{Name: "The Forest Hiker", StartDates: []time.Time{d(2021, time.April), d(2021, time.July), d(2022, time.April)}},
		{Name: "The City Wanderer", StartDates: []time.Time{d(2021, time.July)}},
	}

	got := MonthlyPlan(tours, 2021)
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Month != 7 || got[0].NumTourStarts != 2 || got[0].Tours[0] != "The City Wanderer" {
		t.Fatalf("unexpected first month %+v", got[0])
	}
	if got[1].Month != 4 || got[1].NumTourStarts != 1 {
		t.Fatalf("unexpected second month %+v", got[1])
	}
}
