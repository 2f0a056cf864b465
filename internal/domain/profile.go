// Package domain contains core domain types for the randomchat application.
package domain

import (
	"fmt"
	"strings"
)

// Gender is a participant's self-declared gender.
type Gender string

// Preference is the gender a participant wants to be matched with.
type Preference string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"

	PreferenceMale   Preference = "MALE"
	PreferenceFemale Preference = "FEMALE"
	PreferenceBoth   Preference = "BOTH"
)

// ParseGender validates a wire-format gender value.
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToUpper(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	}
	return "", fmt.Errorf("invalid gender %q", s)
}

// ParsePreference validates a wire-format preference value.
func ParsePreference(s string) (Preference, error) {
	switch Preference(strings.ToUpper(strings.TrimSpace(s))) {
	case PreferenceMale:
		return PreferenceMale, nil
	case PreferenceFemale:
		return PreferenceFemale, nil
	case PreferenceBoth:
		return PreferenceBoth, nil
	}
	return "", fmt.Errorf("invalid preference %q", s)
}

// UserProfile describes a registered participant. The anonymous ID is the
// public-facing identity and survives re-registration of the same session.
type UserProfile struct {
	Gender      Gender
	Preference  Preference
	AnonymousID string
}

// Accepts reports whether a preference admits a given gender.
func Accepts(p Preference, g Gender) bool {
	if p == PreferenceBoth {
		return true
	}
	return (p == PreferenceMale && g == GenderMale) ||
		(p == PreferenceFemale && g == GenderFemale)
}

// Compatible reports mutual preference satisfaction between two profiles.
func Compatible(a, b UserProfile) bool {
	return Accepts(a.Preference, b.Gender) && Accepts(b.Preference, a.Gender)
}
