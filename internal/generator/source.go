package generator

import (
	"encoding/binary"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source supplies every random draw the generator makes. Two sources built with
// the same seed and clock yield the same sequence of values.
type Source struct {
	seed  uint64
	rng   *rand.Rand
	ids   *rand.ChaCha8
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewSource seeds all streams from seed. A zero seed is replaced by the clock's
// current nanoseconds. A nil clock means time.Now.
func NewSource(seed uint64, now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	if seed == 0 {
		seed = uint64(now().UnixNano())
	}

	var chachaSeed [32]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(chachaSeed[i*8:], seed+uint64(i)*0x9e3779b97f4a7c15)
	}

	return &Source{
		seed:  seed,
		rng:   rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb)),
		ids:   rand.NewChaCha8(chachaSeed),
		faker: gofakeit.New(seed),
		now:   now,
	}
}

// Seed returns the effective seed, useful for reproducing a pass from logs.
func (s *Source) Seed() uint64 {
	return s.seed
}

func (s *Source) Now() time.Time {
	return s.now()
}

// Float64 returns a uniform value in [0,1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// IntRange returns a uniform integer in [lo, hi].
func (s *Source) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

// Uniform returns a uniform value in [lo, hi].
func (s *Source) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Float64()*(hi-lo)
}

// Pick returns a uniform index into a collection of n elements.
func (s *Source) Pick(n int) int {
	return s.rng.IntN(n)
}

// Amount draws a uniform amount in [lo, hi] rounded to cents.
func (s *Source) Amount(lo, hi float64) Amount {
	return NewAmount(decimal.NewFromFloat(s.Uniform(lo, hi)))
}

// ID returns a version 4 UUID read from the seeded id stream.
func (s *Source) ID() string {
	id, err := uuid.NewRandomFromReader(s.ids)
	if err != nil {
		// ChaCha8 reads never fail.
		panic(err)
	}
	return id.String()
}

// TimeThisYear draws a whole-second instant between Jan 1 of the clock's year and now.
func (s *Source) TimeThisYear() time.Time {
	now := s.now().Truncate(time.Second)
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	span := int64(now.Sub(start) / time.Second)
	if span <= 0 {
		return start
	}
	return start.Add(time.Duration(s.rng.Int64N(span+1)) * time.Second)
}

func (s *Source) Name() string {
	return s.faker.Name()
}

func (s *Source) Email() string {
	return s.faker.Email()
}

func (s *Source) Region() string {
	return s.faker.Country()
}

func (s *Source) Company() string {
	return s.faker.Company()
}

// Sentence returns a fake sentence of words words.
func (s *Source) Sentence(words int) string {
	return s.faker.Sentence(words)
}
