package world

import (
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/terragen/internal/engine/spawn"
)

type bucketKey struct {
	X, Z int
}

// Registry owns placed decorations and answers planar proximity queries
// through a uniform bucket grid, so callers never scan the whole scene.
type Registry struct {
	bucketSize float32
	instances  []spawn.Instance
	buckets    map[bucketKey][]int // Indices into instances
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry. bucketSize is the edge length of a
// bucket in world units; non-positive values fall back to 8.
func NewRegistry(bucketSize float32) *Registry {
	if !(bucketSize > 0) {
		bucketSize = 8
	}
	return &Registry{
		bucketSize: bucketSize,
		buckets:    make(map[bucketKey][]int),
	}
}

func (r *Registry) key(x, z float32) bucketKey {
	return bucketKey{
		X: int(math.Floor(float64(x / r.bucketSize))),
		Z: int(math.Floor(float64(z / r.bucketSize))),
	}
}

// Add registers instances.
func (r *Registry) Add(instances ...spawn.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range instances {
		k := r.key(in.Position[0], in.Position[2])
		r.buckets[k] = append(r.buckets[k], len(r.instances))
		r.instances = append(r.instances, in)
	}
}

// Replace drops every instance and registers the given ones.
func (r *Registry) Replace(instances []spawn.Instance) {
	r.Clear()
	r.Add(instances...)
}

// Clear removes all instances.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = nil
	r.buckets = make(map[bucketKey][]int)
}

// Len returns the number of registered instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// All returns a copy of every instance in registration order.
func (r *Registry) All() []spawn.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]spawn.Instance(nil), r.instances...)
}

// Count returns how many instances use each prefab.
func (r *Registry) Count() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, in := range r.instances {
		counts[in.Prefab.Name]++
	}
	return counts
}

// Near returns the instances whose planar distance to pos is at most radius,
// closest first. Ties keep registration order. A negative or non-finite
// radius matches nothing.
func (r *Registry) Near(pos mgl32.Vec3, radius float32) []spawn.Instance {
	if radius < 0 || !finite(radius) || !finite(pos[0]) || !finite(pos[2]) {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	type hit struct {
		idx  int
		dist float32
	}
	var hits []hit
	r2 := radius * radius
	test := func(idx int) {
		p := r.instances[idx].Position
		dx, dz := p[0]-pos[0], p[2]-pos[2]
		if d := dx*dx + dz*dz; d <= r2 {
			hits = append(hits, hit{idx, d})
		}
	}

	// Scan the instances directly once the query covers more buckets than
	// are occupied.
	span := float64(2*radius/r.bucketSize) + 2
	if span*span > float64(len(r.buckets)) {
		for idx := range r.instances {
			test(idx)
		}
	} else {
		lo := r.key(pos[0]-radius, pos[2]-radius)
		hi := r.key(pos[0]+radius, pos[2]+radius)
		for bz := lo.Z; bz <= hi.Z; bz++ {
			for bx := lo.X; bx <= hi.X; bx++ {
				for _, idx := range r.buckets[bucketKey{bx, bz}] {
					test(idx)
				}
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].idx < hits[j].idx
	})

	out := make([]spawn.Instance, len(hits))
	for i, h := range hits {
		out[i] = r.instances[h.idx]
	}
	return out
}

// Nearest returns the closest instance within radius.
func (r *Registry) Nearest(pos mgl32.Vec3, radius float32) (spawn.Instance, bool) {
	near := r.Near(pos, radius)
	if len(near) == 0 {
		return spawn.Instance{}, false
	}
	return near[0], true
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
