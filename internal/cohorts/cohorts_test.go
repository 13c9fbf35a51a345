package cohorts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/webizupfr/notion-mirror/internal/cohorts"
	"github.com/webizupfr/notion-mirror/internal/content"
	"github.com/webizupfr/notion-mirror/internal/store"
)

func seedHub(t *testing.T, cs store.ContentStore) {
	t.Helper()

	err := cs.PutPage(context.Background(), &content.PageBundle{
		Meta: content.PageMeta{
			Title:    "AI Sprint Hub",
			Slug:     "ai-sprint",
			NotionID: "11111111-2222-3333-4444-555555555555",
			LearningPath: &content.LearningPath{
				Days: []content.LearningDay{
					{Title: "Kickoff", Slug: "day-0", DayOffset: 0},
					{Title: "Prototyping", Slug: "day-1", DayOffset: 1},
					{Title: "Demo day", Slug: "day-4", DayOffset: 4},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("seed hub: %v", err)
	}
}

func seedCohorts(t *testing.T, cs store.ContentStore, hubNotionID string) {
	t.Helper()

	err := cs.PutCohorts(context.Background(), []content.Cohort{{
		Slug:        "spring-26",
		Name:        "Spring 2026",
		HubNotionID: hubNotionID,
		Timezone:    "Europe/Madrid",
		StartDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("seed cohorts: %v", err)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestResolve_ProjectsSessionDates(t *testing.T) {
	cs := store.NewMemoryStore()
	seedHub(t, cs)
	// Compact, uppercase form of the hub's hyphenated ID still matches.
	seedCohorts(t, cs, "11111111222233334444555555555555")

	svc := cohorts.NewService(cs, cohorts.WithClock(
		fixedClock(time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)),
	))

	overlay, err := svc.Resolve(context.Background(), "ai-sprint", "spring-26")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if overlay.HubSlug != "ai-sprint" || overlay.Cohort != "spring-26" {
		t.Fatalf("unexpected overlay identity: %+v", overlay)
	}
	if len(overlay.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(overlay.Sessions))
	}

	madrid, _ := time.LoadLocation("Europe/Madrid")
	if got, want := overlay.Sessions[0].Date, time.Date(2026, 3, 2, 0, 0, 0, 0, madrid); !got.Equal(want) {
		t.Fatalf("kickoff date: got %v want %v", got, want)
	}
	if got, want := overlay.Sessions[2].Date, time.Date(2026, 3, 6, 0, 0, 0, 0, madrid); !got.Equal(want) {
		t.Fatalf("demo date: got %v want %v", got, want)
	}

	// Clock is at March 3rd: kickoff is past, the rest are not.
	if !overlay.Sessions[0].Past {
		t.Fatal("expected kickoff to be past")
	}
	if overlay.Sessions[1].Past || overlay.Sessions[2].Past {
		t.Fatalf("expected later sessions to be upcoming: %+v", overlay.Sessions)
	}
}

func TestResolve_HubMismatch(t *testing.T) {
	cs := store.NewMemoryStore()
	seedHub(t, cs)
	seedCohorts(t, cs, "99999999-8888-7777-6666-555555555555")

	svc := cohorts.NewService(cs)
	if _, err := svc.Resolve(context.Background(), "ai-sprint", "spring-26"); !errors.Is(err, cohorts.ErrHubMismatch) {
		t.Fatalf("expected hub mismatch, got %v", err)
	}
}

func TestResolve_MissingHub(t *testing.T) {
	cs := store.NewMemoryStore()
	seedCohorts(t, cs, "whatever")

	svc := cohorts.NewService(cs)
	if _, err := svc.Resolve(context.Background(), "ai-sprint", "spring-26"); !store.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolve_MissingCohort(t *testing.T) {
	cs := store.NewMemoryStore()
	seedHub(t, cs)

	svc := cohorts.NewService(cs)
	if _, err := svc.Resolve(context.Background(), "ai-sprint", "spring-26"); !errors.Is(err, cohorts.ErrCohortNotFound) {
		t.Fatalf("expected cohort not found, got %v", err)
	}
}

func TestResolve_HubWithoutLearningPath(t *testing.T) {
	cs := store.NewMemoryStore()
	err := cs.PutPage(context.Background(), &content.PageBundle{
		Meta: content.PageMeta{
			Title:    "Plain hub",
			Slug:     "plain",
			NotionID: "abc",
		},
	})
	if err != nil {
		t.Fatalf("seed hub: %v", err)
	}
	seedCohorts(t, cs, "abc")

	svc := cohorts.NewService(cs)
	if _, err := svc.Resolve(context.Background(), "plain", "spring-26"); !errors.Is(err, cohorts.ErrNoLearningPath) {
		t.Fatalf("expected no learning path, got %v", err)
	}
}

func TestResolve_DoesNotMutateHubBundle(t *testing.T) {
	cs := store.NewMemoryStore()
	seedHub(t, cs)
	seedCohorts(t, cs, "11111111-2222-3333-4444-555555555555")

	svc := cohorts.NewService(cs)
	if _, err := svc.Resolve(context.Background(), "ai-sprint", "spring-26"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	hub, err := cs.GetPage(context.Background(), "ai-sprint")
	if err != nil {
		t.Fatalf("get hub: %v", err)
	}
	if len(hub.Meta.LearningPath.Days) != 3 || hub.Meta.LearningPath.Days[0].Slug != "day-0" {
		t.Fatalf("hub bundle changed: %+v", hub.Meta.LearningPath)
	}
}
