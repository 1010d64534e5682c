// SPDX-License-Identifier: AGPL-3.0-only
package models

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func TestPostAccessors(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, Post{}.Likes())
	require.Equal(t, 7, Post{LikeCount: lo.ToPtr(7)}.Likes())

	require.Equal(t, "2024-01-01", Post{Date: "2024-01-01", CreatedAt: "2023-01-01"}.CreatedOn())
	require.Equal(t, "2023-01-01", Post{CreatedAt: "2023-01-01"}.CreatedOn())

	require.Equal(t, MediaNone, Post{}.MediaKind())
	require.Equal(t, MediaImages, Post{Images: []string{"a.png"}}.MediaKind())
	require.Equal(t, MediaVideo, Post{Video: "v.mp4"}.MediaKind())
}

func TestProgressValidate(t *testing.T) {
	t.Parallel()

	valid := Progress{
		Milestone:            "Finished chapter 3",
		SkillCategory:        "Web Development",
		CompletionPercentage: 60,
		ProgressDate:         "2024-06-10",
	}
	require.NoError(t, valid.Validate(now))

	bad := map[string]Progress{
		"category":   {Milestone: "m", SkillCategory: "Go 101", CompletionPercentage: 10, ProgressDate: "2024-01-01"},
		"percentage": {Milestone: "m", SkillCategory: "Go", CompletionPercentage: 101, ProgressDate: "2024-01-01"},
		"future":     {Milestone: "m", SkillCategory: "Go", CompletionPercentage: 10, ProgressDate: "2024-06-11"},
		"milestone":  {SkillCategory: "Go", CompletionPercentage: 10, ProgressDate: "2024-01-01"},
	}
	for name, p := range bad {
		require.ErrorIs(t, p.Validate(now), ErrInvalidRecord, name)
	}
}

func TestSkillExchangeValidate(t *testing.T) {
	t.Parallel()

	base := SkillExchange{
		SkillOffered:   "Guitar",
		SkillRequested: "Spanish",
		Description:    "Weekly sessions, beginner friendly",
		ExchangeDate:   "2024-06-01",
	}

	online := base
	online.PreferredMode = ModeOnline
	online.ContactInfo = "me@example.com"
	require.NoError(t, online.Validate(now))

	online.ContactInfo = "0771234567"
	require.ErrorIs(t, online.Validate(now), ErrInvalidRecord)

	inPerson := base
	inPerson.PreferredMode = ModeInPerson
	inPerson.ContactInfo = "+94 771234567"
	require.ErrorIs(t, inPerson.Validate(now), ErrInvalidRecord)
	inPerson.Location = "Colombo"
	require.NoError(t, inPerson.Validate(now))

	hybrid := base
	hybrid.PreferredMode = ModeHybrid
	require.NoError(t, hybrid.Validate(now))

	short := hybrid
	short.Description = "too short"
	require.ErrorIs(t, short.Validate(now), ErrInvalidRecord)

	unknown := base
	unknown.PreferredMode = "carrier pigeon"
	require.ErrorIs(t, unknown.Validate(now), ErrInvalidRecord)
}
