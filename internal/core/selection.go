package core

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// FirstYear and LastYear bound the years for which datasets are published.
const (
	FirstYear uint16 = 2016
	LastYear  uint16 = 2024
)

// roundsPerYear is the number of published rounds for each year.
var roundsPerYear = map[uint16]uint8{
	2016: 6,
	2017: 7,
	2018: 7,
	2019: 7,
	2020: 6,
	2021: 6,
	2022: 6,
	2023: 6,
	2024: 5,
}

// Selection identifies one dataset: a year and a counselling round.
type Selection struct {
	Year  uint16 `json:"year"`
	Round uint8  `json:"round"`
}

// ValidYears returns the published years as an inclusive range.
func ValidYears() RankRange {
	return NewRankRange(uint32(FirstYear), uint32(LastYear))
}

// ValidRounds returns the published rounds for year. Unknown years get the
// empty range.
func ValidRounds(year uint16) RankRange {
	n, ok := roundsPerYear[year]
	if !ok {
		return EmptyRange()
	}
	return NewRankRange(1, uint32(n))
}

// Validate reports ErrInvalidSelection when the year or round is outside the
// published domain. It never touches storage.
func (s Selection) Validate() error {
	if !ValidYears().Contains(uint32(s.Year)) {
		return fmt.Errorf("%w: year %d outside %d-%d", ErrInvalidSelection, s.Year, FirstYear, LastYear)
	}
	rounds := ValidRounds(s.Year)
	if !rounds.Contains(uint32(s.Round)) {
		return fmt.Errorf("%w: round %d outside 1-%d for year %d", ErrInvalidSelection, s.Round, rounds.End, s.Year)
	}
	return nil
}

// DBPath returns the SQLite file holding this selection under root, in the
// form <root>/<year>/data-<year>-<round>.db.
func (s Selection) DBPath(root string) string {
	return filepath.Join(root, strconv.Itoa(int(s.Year)), s.FileName())
}

// FileName returns data-<year>-<round>.db.
func (s Selection) FileName() string {
	return fmt.Sprintf("data-%d-%d.db", s.Year, s.Round)
}

func (s Selection) String() string {
	return fmt.Sprintf("%d/%d", s.Year, s.Round)
}

// ParseSelection parses "2024/3" (or "2024-3") and validates the result.
func ParseSelection(v string) (Selection, error) {
	v = strings.TrimSpace(v)
	sep := strings.IndexAny(v, "/-")
	if sep <= 0 || sep == len(v)-1 {
		return Selection{}, fmt.Errorf("%w: %q is not <year>/<round>", ErrInvalidSelection, v)
	}
	year, err := strconv.ParseUint(v[:sep], 10, 16)
	if err != nil {
		return Selection{}, fmt.Errorf("%w: year %q: %v", ErrInvalidSelection, v[:sep], err)
	}
	round, err := strconv.ParseUint(v[sep+1:], 10, 8)
	if err != nil {
		return Selection{}, fmt.Errorf("%w: round %q: %v", ErrInvalidSelection, v[sep+1:], err)
	}
	sel := Selection{Year: uint16(year), Round: uint8(round)}
	if err := sel.Validate(); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// YearRounds lists one published year with its rounds.
type YearRounds struct {
	Year   uint16 `json:"year"`
	Rounds []int  `json:"rounds"`
}

// Catalog returns every valid selection grouped by year, oldest first.
func Catalog() []YearRounds {
	var out []YearRounds
	for y := range ValidYears().All() {
		year := uint16(y)
		yr := YearRounds{Year: year}
		for r := range ValidRounds(year).All() {
			yr.Rounds = append(yr.Rounds, int(r))
		}
		out = append(out, yr)
	}
	return out
}
