// Package cohorts projects a cohort's schedule over a hub's learning path at
// read time. The overlay never mutates the stored hub bundle.
package cohorts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/webizupfr/notion-mirror/internal/content"
	"github.com/webizupfr/notion-mirror/internal/store"
)

var (
	ErrCohortNotFound = errors.New("cohorts: cohort not found")
	ErrHubMismatch    = errors.New("cohorts: cohort does not belong to hub")
	ErrNoLearningPath = errors.New("cohorts: hub has no learning path")
)

// Session is one learning-path day with its projected calendar date.
type Session struct {
	Title string    `json:"title"`
	Slug  string    `json:"slug"`
	Date  time.Time `json:"date"`
	Past  bool      `json:"past"`
}

// Overlay is the resolved schedule for one cohort of one hub.
type Overlay struct {
	HubSlug    string    `json:"hub_slug"`
	Cohort     string    `json:"cohort"`
	Name       string    `json:"name"`
	Timezone   string    `json:"timezone"`
	StartDate  time.Time `json:"start_date"`
	Sessions   []Session `json:"sessions"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Service resolves cohort overlays against cached content.
type Service struct {
	store store.ContentStore
	now   func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the session-date clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a cohort overlay resolver.
func NewService(cs store.ContentStore, opts ...Option) *Service {
	s := &Service{store: cs, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve loads the hub bundle and the named cohort and projects session
// dates over the hub's learning path in the cohort's timezone. A cohort whose
// HubNotionID does not match the hub's page is rejected, not merged.
func (s *Service) Resolve(ctx context.Context, hubSlug, cohortSlug string) (*Overlay, error) {
	hub, err := s.store.GetPage(ctx, hubSlug)
	if err != nil {
		return nil, err
	}
	cohort, err := s.findCohort(ctx, cohortSlug)
	if err != nil {
		return nil, err
	}
	if !sameNotionID(cohort.HubNotionID, hub.Meta.NotionID) {
		return nil, fmt.Errorf("%w: cohort %q targets %q, hub %q is %q",
			ErrHubMismatch, cohortSlug, cohort.HubNotionID, hubSlug, hub.Meta.NotionID)
	}
	if hub.Meta.LearningPath == nil || len(hub.Meta.LearningPath.Days) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoLearningPath, hubSlug)
	}

	loc, err := time.LoadLocation(cohort.Timezone)
	if err != nil {
		return nil, fmt.Errorf("cohorts: timezone %q: %w", cohort.Timezone, err)
	}
	now := s.now().In(loc)

	start := cohort.StartDate.In(loc)
	sessions := make([]Session, 0, len(hub.Meta.LearningPath.Days))
	for _, day := range hub.Meta.LearningPath.Days {
		date := startOfDay(start.AddDate(0, 0, day.DayOffset))
		sessions = append(sessions, Session{
			Title: day.Title,
			Slug:  day.Slug,
			Date:  date,
			Past:  date.Before(startOfDay(now)),
		})
	}

	return &Overlay{
		HubSlug:    hub.Meta.Slug,
		Cohort:     cohort.Slug,
		Name:       cohort.Name,
		Timezone:   cohort.Timezone,
		StartDate:  start,
		Sessions:   sessions,
		ResolvedAt: s.now().UTC(),
	}, nil
}

func (s *Service) findCohort(ctx context.Context, slug string) (*content.Cohort, error) {
	cohorts, err := s.store.GetCohorts(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %q", ErrCohortNotFound, slug)
		}
		return nil, err
	}
	want := strings.ToLower(strings.TrimSpace(slug))
	for i := range cohorts {
		if strings.ToLower(cohorts[i].Slug) == want {
			return &cohorts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrCohortNotFound, slug)
}

// Upstream IDs appear both hyphenated and compact; compare canonical forms.
func sameNotionID(a, b string) bool {
	return canonicalID(a) != "" && canonicalID(a) == canonicalID(b)
}

func canonicalID(id string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(id), "-", ""))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
