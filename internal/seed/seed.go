// Package seed generates reproducible demo stores and reviews.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

// Target is where generated data is written. Both store repositories satisfy it.
type Target interface {
	Create(ctx context.Context, store *domain.Store) error
	AddReview(ctx context.Context, review domain.Review) (domain.Review, error)
}

// Options controls how much data is generated.
type Options struct {
	Stores     int
	Reviews    int
	RandomSeed int64
	// Now anchors created timestamps; zero means time.Now.
	Now time.Time
}

// Result counts what Load wrote.
type Result struct {
	Stores  int
	Reviews int
}

// Plan is a generated data set before it is written.
type Plan struct {
	Stores []domain.Store
	// Reviews[i] belong to Stores[i]; Store ids are filled in by Load.
	Reviews [][]domain.Review
}

const maxReviewsPerStore = 12

// center of the generated map area (lng, lat).
var center = [2]float64{-73.5673, 45.5017}

var storeNames = []string{
	"Café Olimpico", "Tim Hortons", "Schwartz's Deli", "St-Viateur Bagel", "Fairmount Bagel",
	"Joe Beef", "Le Vieux Velo", "Dispatch Coffee", "Pikolo Espresso", "Crew Collective",
	"Kem CoBa", "Patati Patata", "La Banquise", "Wilensky's", "Larrys",
	"Hvor", "Lawrence", "Olive et Gourmando", "Café Myriade", "Dinette Triple Crown",
}

var tagOptions = []string{"Wifi", "Open Late", "Family Friendly", "Vegetarian", "Licensed"}

var descriptions = []string{
	"Cozy spot with great coffee and friendly staff.",
	"A neighbourhood institution serving classics since forever.",
	"Bright room, long tables and plenty of outlets for laptops.",
	"Known for the best bagels in town, baked in a wood-fired oven.",
	"Small menu, big flavours. Expect a line on weekends.",
	"Late night comfort food and a patio in the summer.",
}

var reviewTexts = []string{
	"Would come back.",
	"Great service, a little loud.",
	"Best sandwich I've had this year.",
	"Coffee was cold but the pastries made up for it.",
	"Perfect for working remotely.",
	"Overrated.",
	"Lovely staff and a calm atmosphere.",
}

var ratingWeights = []int{1, 1, 2, 4, 5} // index+1 is the rating

// Generate builds a deterministic plan for opts.
func Generate(opts Options) Plan {
	rng := rand.New(rand.NewSource(opts.RandomSeed))
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	plan := Plan{
		Stores:  make([]domain.Store, 0, opts.Stores),
		Reviews: make([][]domain.Review, 0, opts.Stores),
	}
	slugUse := make(map[string]int, opts.Stores)
	for i := 0; i < opts.Stores; i++ {
		name := storeNames[i%len(storeNames)]
		base := domain.Slugify(name)
		slugUse[base]++
		if n := slugUse[base]; n > 1 {
			name = fmt.Sprintf("%s %d", name, n)
		}

		lng := round(center[0]+(rng.Float64()-0.5)*0.1, 6)
		lat := round(center[1]+(rng.Float64()-0.5)*0.1, 6)
		plan.Stores = append(plan.Stores, domain.Store{
			Name:        name,
			Slug:        domain.NthSlug(base, slugUse[base]),
			Description: descriptions[rng.Intn(len(descriptions))],
			Tags:        pickUnique(rng, tagOptions, 1+rng.Intn(3)),
			Location:    domain.NewLocation(lng, lat, fmt.Sprintf("%d Rue Saint-Denis, Montréal", 100+rng.Intn(9000))),
			Author:      fmt.Sprintf("seed-user-%d", 1+rng.Intn(5)),
			CreatedAt:   now.Add(-time.Duration(rng.Intn(365*24)) * time.Hour),
		})
	}

	counts := distribute(opts.Reviews, opts.Stores, 0, maxReviewsPerStore, rng)
	for i, n := range counts {
		reviews := make([]domain.Review, 0, n)
		for j := 0; j < n; j++ {
			reviews = append(reviews, domain.Review{
				Author:    fmt.Sprintf("seed-user-%d", 1+rng.Intn(20)),
				Rating:    weightedRating(rng),
				Text:      reviewTexts[rng.Intn(len(reviewTexts))],
				CreatedAt: plan.Stores[i].CreatedAt.Add(time.Duration(1+rng.Intn(24*30)) * time.Hour),
			})
		}
		plan.Reviews = append(plan.Reviews, reviews)
	}
	return plan
}

// Load generates a plan and writes it to target.
func Load(ctx context.Context, target Target, opts Options) (Result, error) {
	if opts.Stores <= 0 {
		return Result{}, errors.New("stores は 1 以上を指定してください")
	}
	plan := Generate(opts)

	var res Result
	for i := range plan.Stores {
		store := plan.Stores[i]
		if err := target.Create(ctx, &store); err != nil {
			return res, fmt.Errorf("seed store %q: %w", store.Slug, err)
		}
		res.Stores++

		for _, review := range plan.Reviews[i] {
			review.Store = store.ID
			if _, err := target.AddReview(ctx, review); err != nil {
				return res, fmt.Errorf("seed review for %q: %w", store.Slug, err)
			}
			res.Reviews++
		}
	}
	return res, nil
}

// distribute spreads total over buckets, each holding between min and max.
func distribute(total, buckets, minPerBucket, maxPerBucket int, rng *rand.Rand) []int {
	if buckets <= 0 {
		return nil
	}
	if maxPerBucket < minPerBucket {
		maxPerBucket = minPerBucket
	}
	counts := make([]int, buckets)
	for i := range counts {
		counts[i] = minPerBucket
	}
	remaining := min(total, maxPerBucket*buckets) - minPerBucket*buckets
	for remaining > 0 {
		i := rng.Intn(buckets)
		if counts[i] >= maxPerBucket {
			continue
		}
		counts[i]++
		remaining--
	}
	return counts
}

func pickUnique(rng *rand.Rand, source []string, count int) []string {
	if count >= len(source) {
		return append([]string(nil), source...)
	}
	seen := make(map[int]struct{}, count)
	result := make([]string, 0, count)
	for len(result) < count {
		idx := rng.Intn(len(source))
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		result = append(result, source[idx])
	}
	return result
}

func weightedRating(rng *rand.Rand) int {
	total := 0
	for _, w := range ratingWeights {
		total += w
	}
	pick := rng.Intn(total)
	for i, w := range ratingWeights {
		if pick < w {
			return i + 1
		}
		pick -= w
	}
	return len(ratingWeights)
}

func round(val float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Round(val*p) / p
}
