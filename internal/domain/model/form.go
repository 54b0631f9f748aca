package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPlayer is returned when a player form does not validate.
var ErrInvalidPlayer = errors.New("invalid player")

// PlayerForm is the raw input of the add/edit player form.
type PlayerForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthYear string `json:"birth_year"`
}

// Validate checks the form and returns the parsed birth year.
func (f PlayerForm) Validate() (int, error) {
	if strings.TrimSpace(f.FirstName) == "" {
		return 0, fmt.Errorf("%w: first name is blank", ErrInvalidPlayer)
	}
	if strings.TrimSpace(f.LastName) == "" {
		return 0, fmt.Errorf("%w: last name is blank", ErrInvalidPlayer)
	}
	year, err := strconv.Atoi(strings.TrimSpace(f.BirthYear))
	if err != nil {
		return 0, fmt.Errorf("%w: birth year %q is not a number", ErrInvalidPlayer, f.BirthYear)
	}
	return year, nil
}

// Apply validates the form and copies its values onto p, keeping identity
// and avatar. p is left untouched when validation fails.
func (f PlayerForm) Apply(p *Player) error {
	year, err := f.Validate()
	if err != nil {
		return err
	}
	p.FirstName = f.FirstName
	p.LastName = f.LastName
	p.BirthYear = year
	return nil
}
