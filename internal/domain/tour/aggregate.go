package tour

import (
	"sort"
	"time"
)

// The functions below compute tour aggregates over an in-memory slice. The
// postgres repository answers the same questions in SQL.

// Within returns the tours whose start location lies within radius radians
// of (lat, lng).
func Within(tours []Tour, lat, lng, radius float64) []Tour {
	out := make([]Tour, 0)
	for _, t := range tours {
		if t.StartLocation == nil {
			continue
		}
		tLng, tLat, ok := t.StartLocation.LngLat()
		if !ok {
			continue
		}
		if AngularDistance(lat, lng, tLat, tLng) <= radius {
			out = append(out, t)
		}
	}
	return out
}

// Distances lists every tour with a start location, nearest first.
func Distances(tours []Tour, lat, lng float64, unit Unit) []Distance {
	out := make([]Distance, 0, len(tours))
	for _, t := range tours {
		if t.StartLocation == nil {
			continue
		}
		tLng, tLat, ok := t.StartLocation.LngLat()
		if !ok {
			continue
		}
		out = append(out, Distance{
			ID:       t.ID,
			Name:     t.Name,
			Distance: DistanceMeters(lat, lng, tLat, tLng) * Multiplier(unit),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// Stats groups well-rated tours by difficulty, cheapest group first.
func Stats(tours []Tour) []DifficultyStats {
	byDiff := map[Difficulty]*DifficultyStats{}
	ratingSum := map[Difficulty]float64{}
	priceSum := map[Difficulty]float64{}

	for _, t := range tours {
		if t.RatingsAverage < StatsMinRating {
			continue
		}
		s, ok := byDiff[t.Difficulty]
		if !ok {
			s = &DifficultyStats{Difficulty: t.Difficulty, MinPrice: t.Price, MaxPrice: t.Price}
			byDiff[t.Difficulty] = s
		}
		s.NumTours++
		s.NumRatings += t.RatingsQuantity
		ratingSum[t.Difficulty] += t.RatingsAverage
		priceSum[t.Difficulty] += t.Price
		if t.Price < s.MinPrice {
			s.MinPrice = t.Price
		}
		if t.Price > s.MaxPrice {
			s.MaxPrice = t.Price
		}
	}

	out := make([]DifficultyStats, 0, len(byDiff))
	for d, s := range byDiff {
		s.AvgRating = ratingSum[d] / float64(s.NumTours)
		s.AvgPrice = priceSum[d] / float64(s.NumTours)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgPrice != out[j].AvgPrice {
			return out[i].AvgPrice < out[j].AvgPrice
		}
		return out[i].Difficulty < out[j].Difficulty
	})
	return out
}

// MonthlyPlan counts tour starts per month of year, busiest month first.
func MonthlyPlan(tours []Tour, year int) []MonthPlan {
	byMonth := map[int]*MonthPlan{}

	for _, t := range tours {
		for _, d := range t.StartDates {
			d = d.UTC()
			if d.Year() != year {
				continue
			}
			m := int(d.Month())
			p, ok := byMonth[m]
			if !ok {
				p = &MonthPlan{Month: m, Tours: []string{}}
				byMonth[m] = p
			}
			p.NumTourStarts++
			p.Tours = append(p.Tours, t.Name)
		}
	}

	out := make([]MonthPlan, 0, len(byMonth))
	for _, p := range byMonth {
		sort.Strings(p.Tours)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NumTourStarts != out[j].NumTourStarts {
			return out[i].NumTourStarts > out[j].NumTourStarts
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// YearBounds is [Jan 1 year, Jan 1 year+1) in UTC.
func YearBounds(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}
