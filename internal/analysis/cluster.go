package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"

	"github.com/KaramelBytes/askcsv/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// ClusterColumn is the derived column written by Cluster.
	ClusterColumn = "cluster"
	// DefaultK is the number of groups used when the caller passes k <= 0.
	DefaultK = 3

	clusterSeed    = 42
	clusterMaxIter = 300
)

// Cluster partitions the rows with complete numeric data into k groups using
// Lloyd's k-means over z-scored numeric columns, then writes each row's group
// id to the "cluster" column (rows with a missing numeric value get an empty
// cell). It returns group id -> row count, largest group first.
//
// Seeding is deterministic, so an unchanged dataset yields the same counts.
// Calling it again replaces the previous "cluster" column.
func Cluster(ds *dataset.Dataset, k int) (Result, error) {
	if k <= 0 {
		k = DefaultK
	}
	cols := ds.NumericColumns()
	if len(cols) == 0 {
		return Result{}, fmt.Errorf("%w: %w", ErrInsufficientData, ErrNoNumericColumns)
	}
	var keep []int
	for i := 0; i < ds.NumRows(); i++ {
		complete := true
		for _, c := range cols {
			if math.IsNaN(c.Num[i]) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	if len(keep) < k {
		return Result{}, fmt.Errorf("%w: %d complete rows for %d clusters", ErrInsufficientData, len(keep), k)
	}

	points := standardize(cols, keep)
	labels := kmeans(points, k, rand.New(rand.NewSource(clusterSeed)))

	cells := make([]string, ds.NumRows())
	counts := make([]int, k)
	for p, row := range keep {
		cells[row] = strconv.Itoa(labels[p])
		counts[labels[p]]++
	}
	if err := ds.AppendColumn(ClusterColumn, cells, true); err != nil {
		return Result{}, err
	}

	ids := make([]int, 0, k)
	for id, n := range counts {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool { return counts[ids[i]] > counts[ids[j]] })
	m := make(Map, 0, len(ids))
	for _, id := range ids {
		m = append(m, Entry{Key: strconv.Itoa(id), Value: counts[id]})
	}
	return FlatMap(m), nil
}

// standardize returns one point per kept row, each column scaled to zero
// mean and unit population variance. Constant columns become 0.
func standardize(cols []*dataset.Column, keep []int) [][]float64 {
	points := make([][]float64, len(keep))
	for p := range points {
		points[p] = make([]float64, len(cols))
	}
	vals := make([]float64, len(keep))
	for j, c := range cols {
		for p, row := range keep {
			vals[p] = c.Num[row]
		}
		mean, std := stat.PopMeanStdDev(vals, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for p := range keep {
			points[p][j] = (vals[p] - mean) / std
		}
	}
	return points
}

func kmeans(points [][]float64, k int, rng *rand.Rand) []int {
	centers := seedCenters(points, k, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}
	dim := len(points[0])
	for iter := 0; iter < clusterMaxIter; iter++ {
		changed := false
		for i, p := range points {
			best := nearest(p, centers)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		sums := make([][]float64, k)
		sizes := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			sizes[labels[i]]++
		}
		for c := range centers {
			// an empty group keeps its previous center
			if sizes[c] == 0 {
				continue
			}
			floats.Scale(1/float64(sizes[c]), sums[c])
			centers[c] = sums[c]
		}
	}
	return labels
}

// seedCenters picks k initial centers with k-means++ weighting.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), points[rng.Intn(len(points))]...))
	d2 := make([]float64, len(points))
	for len(centers) < k {
		total := 0.0
		for i, p := range points {
			d := floats.Distance(p, centers[nearest(p, centers)], 2)
			d2[i] = d * d
			total += d2[i]
		}
		next := rng.Intn(len(points))
		if total > 0 {
			target := rng.Float64() * total
			for i, w := range d2 {
				target -= w
				if target <= 0 {
					next = i
					break
				}
			}
		}
		centers = append(centers, append([]float64(nil), points[next]...))
	}
	return centers
}

func nearest(p []float64, centers [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, ctr := range centers {
		if d := floats.Distance(p, ctr, 2); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}
