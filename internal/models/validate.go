// SPDX-License-Identifier: AGPL-3.0-only
package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fluffyriot/skillboard/internal/helpers"
)

var ErrInvalidRecord = errors.New("invalid record")

var (
	categoryPattern = regexp.MustCompile(`^[A-Za-z ]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,14}[0-9]$`)
)

const minExchangeDescription = 20

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}

func notFuture(field, raw string, now time.Time) error {
	t, ok := helpers.ParseDate(raw)
	if !ok {
		return invalid("%s %q is not a date", field, raw)
	}
	if t.After(helpers.EndOfDay(now)) {
		return invalid("%s %q is in the future", field, raw)
	}
	return nil
}

// Validate checks the rules the progress edit form enforces.
func (p Progress) Validate(now time.Time) error {
	if strings.TrimSpace(p.Milestone) == "" {
		return invalid("milestone is required")
	}
	if !categoryPattern.MatchString(p.SkillCategory) {
		return invalid("skill category %q must contain letters and spaces only", p.SkillCategory)
	}
	if p.CompletionPercentage < 0 || p.CompletionPercentage > 100 {
		return invalid("completion percentage %d out of range", p.CompletionPercentage)
	}
	return notFuture("progress date", p.ProgressDate, now)
}

// Validate checks the rules the skill exchange edit form enforces.
func (e SkillExchange) Validate(now time.Time) error {
	if strings.TrimSpace(e.SkillOffered) == "" || strings.TrimSpace(e.SkillRequested) == "" {
		return invalid("offered and requested skills are required")
	}
	if len([]rune(strings.TrimSpace(e.Description))) < minExchangeDescription {
		return invalid("description must be at least %d characters", minExchangeDescription)
	}
	if err := notFuture("exchange date", e.ExchangeDate, now); err != nil {
		return err
	}

	switch e.PreferredMode {
	case ModeOnline:
		if !emailPattern.MatchString(e.ContactInfo) {
			return invalid("online exchanges need an email contact, got %q", e.ContactInfo)
		}
	case ModeInPerson:
		if strings.TrimSpace(e.Location) == "" {
			return invalid("in-person exchanges need a location")
		}
		if !phonePattern.MatchString(e.ContactInfo) {
			return invalid("in-person exchanges need a phone contact, got %q", e.ContactInfo)
		}
	case ModeHybrid:
	default:
		return invalid("unknown preferred mode %q", e.PreferredMode)
	}
	return nil
}
