// SPDX-License-Identifier: AGPL-3.0-only
package models

import "strings"

type MediaKind string

const (
	MediaNone   MediaKind = "none"
	MediaImages MediaKind = "images"
	MediaVideo  MediaKind = "video"
)

type PreferredMode string

const (
	ModeOnline   PreferredMode = "online"
	ModeInPerson PreferredMode = "in-person"
	ModeHybrid   PreferredMode = "hybrid"
)

const (
	StatusCompleted  = "completed"
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
)

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfileImage   string `json:"profileImage,omitempty"`
	FollowersCount int    `json:"followersCount"`
	FollowingCount int    `json:"followingCount"`
}

type Comment struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

type Post struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images,omitempty"`
	Video       string    `json:"video,omitempty"`
	LikeCount   *int      `json:"likeCount,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`
	Date        string    `json:"date,omitempty"`
	CreatedAt   string    `json:"createdAt,omitempty"`
}

// Likes returns the like count, treating an absent value as zero.
func (p Post) Likes() int {
	if p.LikeCount == nil {
		return 0
	}
	return *p.LikeCount
}

// CreatedOn returns the raw creation date, preferring "date" over "createdAt".
func (p Post) CreatedOn() string {
	if strings.TrimSpace(p.Date) != "" {
		return p.Date
	}
	return p.CreatedAt
}

// MediaKind reports which media variant the post carries. A post that
// somehow carries both is reported as video, matching how the feed plays it.
func (p Post) MediaKind() MediaKind {
	switch {
	case strings.TrimSpace(p.Video) != "":
		return MediaVideo
	case len(p.Images) > 0:
		return MediaImages
	default:
		return MediaNone
	}
}

type Progress struct {
	ID                   string `json:"progressId"`
	UserID               string `json:"userId"`
	Milestone            string `json:"milestone"`
	Description          string `json:"description"`
	SkillCategory        string `json:"skillCategory"`
	CompletionPercentage int    `json:"completionPercentage"`
	ProgressDate         string `json:"progressDate"`
	LearningResources    string `json:"learningResources,omitempty"`
}

type SkillExchange struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	SkillOffered   string        `json:"skillOffered"`
	SkillRequested string        `json:"skillRequested"`
	Description    string        `json:"description"`
	ExchangeDate   string        `json:"exchangeDate"`
	PreferredMode  PreferredMode `json:"preferredMode"`
	Location       string        `json:"location,omitempty"`
	ContactInfo    string        `json:"contactInfo,omitempty"`
	Status         string        `json:"status,omitempty"`
}
