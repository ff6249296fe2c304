package garage

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/race/horizon/internal/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "garage.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProfile_CreatedOnce(t *testing.T) {
	s := openTestStore(t)

	p, err := s.Profile("vera")
	require.NoError(t, err)
	assert.Equal(t, StartingCredits, p.Credits)
	require.Len(t, p.Cars, 1)
	assert.Equal(t, 0, p.Cars[0].CarIndex)
	assert.Equal(t, catalog.DefaultUpgrades(), p.Cars[0].Upgrades())

	again, err := s.Profile("vera")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Len(t, again.Cars, 1)
}

func TestBuyCar(t *testing.T) {
	s := openTestStore(t)

	p, err := s.BuyCar("vera", 1)
	require.NoError(t, err)
	assert.Equal(t, StartingCredits-catalog.Cars[1].Price, p.Credits)
	assert.Len(t, p.Cars, 2)

	_, err = s.BuyCar("vera", 1)
	assert.ErrorIs(t, err, ErrCarOwned)

	_, err = s.BuyCar("vera", 99)
	assert.ErrorIs(t, err, ErrUnknownCar)

	reloaded, err := s.Profile("vera")
	require.NoError(t, err)
	assert.Equal(t, p.Credits, reloaded.Credits)
	assert.Len(t, reloaded.Cars, 2)
}

func TestBuyCar_InsufficientCredits(t *testing.T) {
	s := openTestStore(t)

	// Voltage costs 3000
	_, err := s.BuyCar("vera", 5)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	p, err := s.Profile("vera")
	require.NoError(t, err)
	assert.Equal(t, StartingCredits, p.Credits)
}

func TestBuyUpgrade(t *testing.T) {
	s := openTestStore(t)

	car, err := s.BuyUpgrade("vera", 0, catalog.UpgradeEngine)
	require.NoError(t, err)
	assert.Equal(t, 2, car.Engine)
	assert.Equal(t, 1, car.Tires)

	p, err := s.Profile("vera")
	require.NoError(t, err)
	assert.Equal(t, StartingCredits-catalog.UpgradeCost(catalog.UpgradeEngine, 2), p.Credits)

	stats, err := s.ProfileStats("vera", 0)
	require.NoError(t, err)
	assert.Equal(t, catalog.UpgradedStats(catalog.Cars[0].Stats, car.Upgrades()), stats)

	_, err = s.BuyUpgrade("vera", 3, catalog.UpgradeEngine)
	assert.ErrorIs(t, err, ErrCarNotOwned)

	_, err = s.BuyUpgrade("vera", 0, catalog.UpgradeKind("nitro"))
	assert.ErrorIs(t, err, ErrUnknownUpgrade)
}

func TestBuyUpgrade_MaxLevelAndCredits(t *testing.T) {
	s := openTestStore(t)
	_, err := s.RecordResult("vera", RaceResult{Position: 1, Reward: 10000})
	require.NoError(t, err)

	for level := 2; level <= catalog.MaxUpgradeLevel; level++ {
		car, err := s.BuyUpgrade("vera", 0, catalog.UpgradeTires)
		require.NoError(t, err)
		assert.Equal(t, level, car.Tires)
	}
	_, err = s.BuyUpgrade("vera", 0, catalog.UpgradeTires)
	assert.ErrorIs(t, err, ErrMaxLevel)

	// 2500 + 10000 - 300*(2+3+4+5)
	p, err := s.Profile("vera")
	require.NoError(t, err)
	assert.Equal(t, 8300, p.Credits)
}

func TestBuyUpgrade_Insufficient(t *testing.T) {
	s := openTestStore(t)
	_, err := s.BuyCar("vera", 1)
	require.NoError(t, err)

	// 2500 - 1500 leaves 1000: engine 2 and 3 cost 1000 and 1500
	_, err = s.BuyUpgrade("vera", 1, catalog.UpgradeEngine)
	require.NoError(t, err)
	_, err = s.BuyUpgrade("vera", 1, catalog.UpgradeEngine)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	p, err := s.Profile("vera")
	require.NoError(t, err)
	assert.Zero(t, p.Credits)
}

func TestSelectCar(t *testing.T) {
	s := openTestStore(t)

	assert.ErrorIs(t, s.SelectCar("vera", 2), ErrCarNotOwned)

	_, err := s.BuyCar("vera", 1)
	require.NoError(t, err)
	require.NoError(t, s.SelectCar("vera", 1))

	p, err := s.Profile("vera")
	require.NoError(t, err)
	assert.Equal(t, 1, p.SelectedCar)
}

func TestRecordResult(t *testing.T) {
	s := openTestStore(t)

	p, err := s.RecordResult("vera", RaceResult{Track: "Neon City", Position: 1, Field: 6, Reward: 1000, RaceTime: 72.5, BestLap: 23.1})
	require.NoError(t, err)
	assert.Equal(t, StartingCredits+1000, p.Credits)
	assert.Equal(t, 1, p.Wins)
	assert.Equal(t, 1, p.TotalRaces)

	p, err = s.RecordResult("vera", RaceResult{Track: "Desert Storm", Position: 4, Field: 6, Reward: 100})
	require.NoError(t, err)
	assert.Equal(t, StartingCredits+1100, p.Credits)
	assert.Equal(t, 1, p.Wins)
	assert.Equal(t, 2, p.TotalRaces)

	results, err := s.Results("vera", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Desert Storm", results[0].Track)
	assert.Equal(t, p.ID, results[0].ProfileID)
	assert.InDelta(t, 72.5, results[1].RaceTime, 1e-9)

	latest, err := s.Results("vera", 1)
	require.NoError(t, err)
	assert.Len(t, latest, 1)

	_, err = s.Results("kai", 0)
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestLookup_DoesNotCreate(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Lookup("vera")
	assert.ErrorIs(t, err, ErrUnknownProfile)
	_, err = s.Lookup("vera")
	assert.ErrorIs(t, err, ErrUnknownProfile)

	created, err := s.Profile("vera")
	require.NoError(t, err)

	p, err := s.Lookup("vera")
	require.NoError(t, err)
	assert.Equal(t, created.ID, p.ID)
	assert.Len(t, p.Cars, 1)
}

func TestOpen_InMemoryAndReopen(t *testing.T) {
	mem, err := Open("", zerolog.Nop())
	require.NoError(t, err)
	_, err = mem.Profile("vera")
	require.NoError(t, err)
	require.NoError(t, mem.Close())

	path := filepath.Join(t.TempDir(), "garage.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	_, err = s.BuyCar("vera", 1)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	p, err := s.Profile("vera")
	require.NoError(t, err)
	assert.Len(t, p.Cars, 2)
}
