package garage

import (
	"time"

	"github.com/race/horizon/internal/catalog"
)

// StartingCredits is the balance of a new profile.
const StartingCredits = 2500

// Profile is a persistent player account.
type Profile struct {
	ID          uint   `gorm:"primarykey"`
	Name        string `gorm:"uniqueIndex;size:64"`
	Credits     int
	Wins        int
	TotalRaces  int
	SelectedCar int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Cars []OwnedCar `gorm:"constraint:OnDelete:CASCADE"`
}

// OwnedCar is one catalog car in a profile's garage with its upgrade levels.
type OwnedCar struct {
	ID        uint `gorm:"primarykey"`
	ProfileID uint `gorm:"uniqueIndex:idx_profile_car"`
	CarIndex  int  `gorm:"uniqueIndex:idx_profile_car"`
	Engine    int
	Tires     int
	Handling  int
}

// Upgrades returns the purchased levels.
func (o OwnedCar) Upgrades() catalog.Upgrades {
	return catalog.Upgrades{Engine: o.Engine, Tires: o.Tires, Handling: o.Handling}.Normalize()
}

func (o *OwnedCar) setUpgrades(u catalog.Upgrades) {
	u = u.Normalize()
	o.Engine, o.Tires, o.Handling = u.Engine, u.Tires, u.Handling
}

// RaceResult is one finished race of a profile.
type RaceResult struct {
	ID        uint `gorm:"primarykey"`
	ProfileID uint `gorm:"index"`
	Track     string
	CarIndex  int
	Position  int
	Field     int
	Reward    int
	RaceTime  float64
	BestLap   float64
	CreatedAt time.Time
}
