// Package garage persists player profiles: credits, owned cars with their
// upgrade levels, and race results.
package garage

import (
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/race/horizon/internal/catalog"
)

var (
	ErrUnknownCar          = errors.New("unknown car")
	ErrCarNotOwned         = errors.New("car not owned")
	ErrCarOwned            = errors.New("car already owned")
	ErrMaxLevel            = errors.New("upgrade already at max level")
	ErrUnknownUpgrade      = errors.New("unknown upgrade")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUnknownProfile      = errors.New("unknown profile")
)

// Store is the sqlite-backed garage.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open opens (or creates) the garage database at path and migrates it.
// An empty path opens a private in-memory database.
func Open(path string, log zerolog.Logger) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open garage %q", path)
	}

	// sqlite has a single writer; one connection also keeps an in-memory
	// database alive for the lifetime of the store.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "garage handle")
	}
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, errors.Wrap(err, "enable foreign keys")
	}

	if err := db.AutoMigrate(&Profile{}, &OwnedCar{}, &RaceResult{}); err != nil {
		return nil, errors.Wrap(err, "migrate garage")
	}

	log.Info().Str("path", path).Msg("garage opened")
	return &Store{db: db, log: log}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "garage handle")
	}
	return sqlDB.Close()
}

// Profile loads the named profile, creating it with the starting credits and
// the free starter car on first use.
func (s *Store) Profile(name string) (*Profile, error) {
	var p Profile
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return loadOrCreate(tx, name, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Lookup loads an existing profile without creating it.
func (s *Store) Lookup(name string) (*Profile, error) {
	var p Profile
	err := s.db.Preload("Cars").Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownProfile
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load profile %q", name)
	}
	return &p, nil
}

func loadOrCreate(tx *gorm.DB, name string, p *Profile) error {
	err := tx.Preload("Cars").Where("name = ?", name).First(p).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(err, "load profile %q", name)
	}

	*p = Profile{Name: name, Credits: StartingCredits}
	starter := OwnedCar{CarIndex: 0}
	starter.setUpgrades(catalog.Cars[0].Upgrades)
	p.Cars = []OwnedCar{starter}

	if err := tx.Create(p).Error; err != nil {
		return errors.Wrapf(err, "create profile %q", name)
	}
	return nil
}

// BuyCar adds a catalog car to the profile's garage.
func (s *Store) BuyCar(name string, carIndex int) (*Profile, error) {
	car, ok := catalog.CarByIndex(carIndex)
	if !ok {
		return nil, ErrUnknownCar
	}

	var p Profile
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadOrCreate(tx, name, &p); err != nil {
			return err
		}
		if _, ok := p.car(carIndex); ok {
			return ErrCarOwned
		}
		if p.Credits < car.Price {
			return ErrInsufficientCredits
		}

		owned := OwnedCar{ProfileID: p.ID, CarIndex: carIndex}
		owned.setUpgrades(car.Upgrades)
		if err := tx.Create(&owned).Error; err != nil {
			return errors.Wrap(err, "add car")
		}
		p.Cars = append(p.Cars, owned)
		p.Credits -= car.Price
		return tx.Model(&p).Update("credits", p.Credits).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("profile", name).Str("car", car.Name).Int("credits", p.Credits).Msg("car bought")
	return &p, nil
}

// BuyUpgrade raises one upgrade track of an owned car by a level.
func (s *Store) BuyUpgrade(name string, carIndex int, kind catalog.UpgradeKind) (*OwnedCar, error) {
	var owned OwnedCar
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var p Profile
		if err := loadOrCreate(tx, name, &p); err != nil {
			return err
		}
		car, ok := p.car(carIndex)
		if !ok {
			return ErrCarNotOwned
		}

		up := car.Upgrades()
		level, ok := up.Level(kind)
		if !ok {
			return ErrUnknownUpgrade
		}
		if level >= catalog.MaxUpgradeLevel {
			return ErrMaxLevel
		}
		if !catalog.CanAffordUpgrade(p.Credits, up, kind) {
			return ErrInsufficientCredits
		}

		car.setUpgrades(up.With(kind, level+1))
		if err := tx.Save(&car).Error; err != nil {
			return errors.Wrap(err, "save upgrade")
		}
		if err := tx.Model(&p).Update("credits", p.Credits-catalog.UpgradeCost(kind, level+1)).Error; err != nil {
			return errors.Wrap(err, "charge upgrade")
		}
		owned = car
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("profile", name).Int("car", carIndex).Str("upgrade", string(kind)).Msg("upgrade bought")
	return &owned, nil
}

// SelectCar marks an owned car as the one raced next.
func (s *Store) SelectCar(name string, carIndex int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var p Profile
		if err := loadOrCreate(tx, name, &p); err != nil {
			return err
		}
		if _, ok := p.car(carIndex); !ok {
			return ErrCarNotOwned
		}
		return tx.Model(&p).Update("selected_car", carIndex).Error
	})
}

// ProfileStats returns the upgraded ratings of an owned car, ready to feed a
// race session.
func (s *Store) ProfileStats(name string, carIndex int) (catalog.Stats, error) {
	p, err := s.Profile(name)
	if err != nil {
		return catalog.Stats{}, err
	}
	owned, ok := p.car(carIndex)
	if !ok {
		return catalog.Stats{}, ErrCarNotOwned
	}
	car, ok := catalog.CarByIndex(carIndex)
	if !ok {
		return catalog.Stats{}, ErrUnknownCar
	}
	return catalog.UpgradedStats(car.Stats, owned.Upgrades()), nil
}

// RecordResult credits the reward and stores the result row.
func (s *Store) RecordResult(name string, r RaceResult) (*Profile, error) {
	var p Profile
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadOrCreate(tx, name, &p); err != nil {
			return err
		}

		r.ID = 0
		r.ProfileID = p.ID
		if err := tx.Create(&r).Error; err != nil {
			return errors.Wrap(err, "store result")
		}

		p.Credits += r.Reward
		p.TotalRaces++
		if r.Position == 1 {
			p.Wins++
		}
		return tx.Model(&p).Updates(map[string]any{
			"credits":     p.Credits,
			"total_races": p.TotalRaces,
			"wins":        p.Wins,
		}).Error
	})
	if err != nil {
		s.log.Error().Err(err).Str("profile", name).Msg("failed to record result")
		return nil, err
	}

	s.log.Info().
		Str("profile", name).
		Str("track", r.Track).
		Int("position", r.Position).
		Int("reward", r.Reward).
		Msg("race recorded")
	return &p, nil
}

// Results returns the latest results of an existing profile, newest first.
func (s *Store) Results(name string, limit int) ([]RaceResult, error) {
	p, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}

	var out []RaceResult
	q := s.db.Where("profile_id = ?", p.ID).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "load results")
	}
	return out, nil
}

func (p *Profile) car(carIndex int) (OwnedCar, bool) {
	for _, c := range p.Cars {
		if c.CarIndex == carIndex {
			return c, true
		}
	}
	return OwnedCar{}, false
}
