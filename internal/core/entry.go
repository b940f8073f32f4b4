package core

import "encoding/json"

// Entry is one admission-outcome row for a given year and round.
//
// Entries are immutable once built. The opening rank is not required to be
// at or below the closing rank; source data sometimes violates that.
type Entry struct {
	institute string
	branch    string
	quota     string
	seatType  string
	gender    string
	opening   uint32
	closing   uint32
}

// EntryFields carries the column values used to build an Entry.
type EntryFields struct {
	Institute   string
	Branch      string
	Quota       string
	SeatType    string
	Gender      string
	OpeningRank uint32
	ClosingRank uint32
}

// NewEntry builds an Entry from its column values.
func NewEntry(f EntryFields) Entry {
	return Entry{
		institute: f.Institute,
		branch:    f.Branch,
		quota:     f.Quota,
		seatType:  f.SeatType,
		gender:    f.Gender,
		opening:   f.OpeningRank,
		closing:   f.ClosingRank,
	}
}

func (e *Entry) Institute() string   { return e.institute }
func (e *Entry) Branch() string      { return e.branch }
func (e *Entry) Quota() string       { return e.quota }
func (e *Entry) SeatType() string    { return e.seatType }
func (e *Entry) Gender() string      { return e.gender }
func (e *Entry) OpeningRank() uint32 { return e.opening }
func (e *Entry) ClosingRank() uint32 { return e.closing }

// Fields returns a copy of the entry's column values.
func (e *Entry) Fields() EntryFields {
	return EntryFields{
		Institute:   e.institute,
		Branch:      e.branch,
		Quota:       e.quota,
		SeatType:    e.seatType,
		Gender:      e.gender,
		OpeningRank: e.opening,
		ClosingRank: e.closing,
	}
}

// categorical returns the entry's value for a categorical facet.
func (e *Entry) categorical(name FacetName) string {
	switch name {
	case FacetQuota:
		return e.quota
	case FacetSeatType:
		return e.seatType
	case FacetGender:
		return e.gender
	case FacetBranch:
		return e.branch
	default:
		return ""
	}
}

type entryJSON struct {
	Institute   string `json:"institute" yaml:"institute"`
	Branch      string `json:"branch" yaml:"branch"`
	Quota       string `json:"quota" yaml:"quota"`
	SeatType    string `json:"seatType" yaml:"seatType"`
	Gender      string `json:"gender" yaml:"gender"`
	OpeningRank uint32 `json:"openingRank" yaml:"openingRank"`
	ClosingRank uint32 `json:"closingRank" yaml:"closingRank"`
}

// MarshalJSON encodes the entry with the same column names the source uses.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}

// MarshalYAML mirrors MarshalJSON for YAML encoders.
func (e Entry) MarshalYAML() (any, error) {
	return e.wire(), nil
}

func (e Entry) wire() entryJSON {
	return entryJSON{
		Institute:   e.institute,
		Branch:      e.branch,
		Quota:       e.quota,
		SeatType:    e.seatType,
		Gender:      e.gender,
		OpeningRank: e.opening,
		ClosingRank: e.closing,
	}
}
