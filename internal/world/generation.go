// Terrain generation using layered simplex noise.
// Produces a hex disc of space terrain with nebula and asteroid clusters,
// gravity wells and void rifts. Used for demo seeding and tests; match
// creation proper is owned by the host.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Radius     int     // Hex grid radius
	Seed       int64   // Random seed (0 = random)
	NebulaLvl  float64 // Density threshold for nebula (0.0–1.0)
	AsteroidLv float64 // Debris threshold for asteroid fields (0.0–1.0)
	VoidLvl    float64 // Rift threshold above which hexes become void
	Wells      int     // Number of gravity wells to scatter
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:     8,
		Seed:       0,
		NebulaLvl:  0.68,
		AsteroidLv: 0.72,
		VoidLvl:    0.86,
		Wells:      3,
	}
}

// SmallTestConfig returns a tiny map for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:     4,
		Seed:       42,
		NebulaLvl:  0.70,
		AsteroidLv: 0.75,
		VoidLvl:    0.92,
		Wells:      1,
	}
}

// Generate creates a terrain map. The same seed always yields the same map.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	densityNoise := opensimplex.NewNormalized(seed)
	debrisNoise := opensimplex.NewNormalized(seed + 1)
	riftNoise := opensimplex.NewNormalized(seed + 2)

	m := NewMap(cfg.Radius)

	for _, coord := range Spiral(HexCoord{}, cfg.Radius) {
		// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
		x := float64(coord.Q) + float64(coord.R)*0.5
		y := float64(coord.R) * math.Sqrt(3.0) / 2.0

		density := octaveNoise(densityNoise, x, y, 3, 0.12, 0.5)
		debris := octaveNoise(debrisNoise, x, y, 3, 0.15, 0.5)
		rift := octaveNoise(riftNoise, x, y, 2, 0.10, 0.5)

		m.Set(coord, deriveTerrain(density, debris, rift, cfg))
	}

	placeWells(m, seed, cfg.Wells)

	return m
}

// deriveTerrain picks a terrain from the noise layers. Void wins over
// everything, then asteroids, then nebula.
func deriveTerrain(density, debris, rift float64, cfg GenConfig) Terrain {
	if rift > cfg.VoidLvl {
		return TerrainVoid
	}
	if debris > cfg.AsteroidLv {
		return TerrainAsteroids
	}
	if density > cfg.NebulaLvl {
		return TerrainNebula
	}
	return TerrainSpace
}

// placeWells scatters gravity wells on non-void hexes.
func placeWells(m *Map, seed int64, count int) {
	if count <= 0 {
		return
	}
	rng := rand.New(rand.NewSource(seed + 100))

	// Spiral order keeps candidate selection deterministic for a given seed.
	var candidates []HexCoord
	for _, coord := range Spiral(HexCoord{}, m.Radius) {
		if t, ok := m.Get(coord); ok && t != TerrainVoid && coord != (HexCoord{}) {
			candidates = append(candidates, coord)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}
	for _, coord := range candidates {
		m.Set(coord, TerrainGravityWell)
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range m.Terrain {
		counts[t]++
	}
	return counts
}
