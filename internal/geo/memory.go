package geo

import (
	"context"
	"sort"
	"sync"
)

// MemoryDirectory is an in-process Directory over a fixed set of points.
type MemoryDirectory struct {
	mu     sync.RWMutex
	points map[string]Point
}

func NewMemoryDirectory(points ...Point) *MemoryDirectory {
	d := &MemoryDirectory{points: make(map[string]Point, len(points))}
	for _, p := range points {
		d.points[p.Zip] = p
	}
	return d
}

func (d *MemoryDirectory) Add(p Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.points[p.Zip] = p
}

func (d *MemoryDirectory) Radius(ctx context.Context, zip string, miles float64) ([]string, error) {
	z, err := NormalizeZip(zip)
	if err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	origin, ok := d.points[z]
	if !ok {
		return nil, ErrUnknownZip
	}

	type hit struct {
		zip  string
		dist float64
	}
	hits := make([]hit, 0, len(d.points))
	for _, p := range d.points {
		if dist := DistanceMiles(origin, p); dist <= miles {
			hits = append(hits, hit{zip: p.Zip, dist: dist})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].zip < hits[j].zip
	})
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.zip
	}
	return out, nil
}
