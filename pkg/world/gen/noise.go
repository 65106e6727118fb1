package gen

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/ojrac/opensimplex-go"
)

// Salts for the fields derived from one world seed.
const (
	saltWierdness int64 = 3
	saltHeat      int64 = 4
	saltMoisture  int64 = 5
	saltPlants    int64 = 6
)

// DeriveSeed turns a world seed and a small salt into the seed of one
// derived field. The sine step decorrelates neighbouring salts. It is
// reduced below 2^62 before conversion so large seeds stay in range, and
// mixed with a hash of (seed, salt) so seeds that collapse the sine term
// (zero, or beyond float64 precision) still derive distinct fields.
func DeriveSeed(seed, salt int64) int64 {
	v := math.Mod(math.Round(float64(seed)*math.Sin(float64(seed^salt))*10000), 1<<62)
	var key [16]byte
	binary.LittleEndian.PutUint64(key[:8], uint64(seed))
	binary.LittleEndian.PutUint64(key[8:], uint64(salt))
	return int64(v) ^ int64(xxhash.Sum64(key[:]))
}

// NoiseField is smooth coherent noise in roughly [-1, 1].
type NoiseField struct {
	noise opensimplex.Noise
}

// NewNoiseField creates the field for (seed, salt).
func NewNoiseField(seed, salt int64) NoiseField {
	return NoiseField{noise: opensimplex.New(DeriveSeed(seed, salt))}
}

// Eval2 samples the field at (x, z).
func (f NoiseField) Eval2(x, z float64) float64 {
	return f.noise.Eval2(x, z)
}

// Eval3 samples the field at (x, y, z).
func (f NoiseField) Eval3(x, y, z float64) float64 {
	return f.noise.Eval3(x, y, z)
}

// Octave2 sums octaves of Eval2 and normalizes back to [-1, 1].
func (f NoiseField) Octave2(x, z float64, octaves int, persistence float64) float64 {
	var total, amp, maxAmp float64 = 0, 1, 0
	freq := 1.0
	for range octaves {
		total += f.noise.Eval2(x*freq, z*freq) * amp
		maxAmp += amp
		amp *= persistence
		freq *= 2
	}
	return total / maxAmp
}

// Hash is a salted integer-coordinate hash returning values in [0, 1).
// It holds no state beyond its seed.
type Hash struct {
	seed uint64
}

// NewHash creates a hash for the given field seed.
func NewHash(seed int64) Hash {
	return Hash{seed: uint64(seed)}
}

// Salted derives an independent hash from h.
func (h Hash) Salted(salt int64) Hash {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], h.seed)
	binary.LittleEndian.PutUint64(buf[8:], uint64(salt))
	return Hash{seed: xxhash.Sum64(buf[:])}
}

// At hashes a column.
func (h Hash) At(x, z int) float64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], h.seed)
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(x)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(int64(z)))
	return unit(xxhash.Sum64(buf[:]))
}

// At3 hashes a single block position.
func (h Hash) At3(x, y, z int) float64 {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:], h.seed)
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(x)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(int64(y)))
	binary.LittleEndian.PutUint64(buf[24:], uint64(int64(z)))
	return unit(xxhash.Sum64(buf[:]))
}

// unit maps the top 53 bits of v onto [0, 1).
func unit(v uint64) float64 {
	return float64(v>>11) / (1 << 53)
}
