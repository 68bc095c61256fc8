package suggest_test

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"refzone/assignment-service/internal/model"
	"refzone/assignment-service/internal/suggest"
)

// fakeStore implements every port in one in-memory fake so tests can wire
// the real components against deterministic data. Method-level errors are
// injected through errs, keyed by method name.
type fakeStore struct {
	games    []model.Game
	referees []model.Referee

	windows  map[string][]model.AvailabilityWindow // refereeID → windows
	bookings map[string][]model.Booking            // refereeID → bookings
	rated    map[string][]model.RatedAssignment    // refereeID → rated completed
	atLevel  map[string][]model.RatedAssignment    // refereeID+"|"+level → completed

	assignedRefs map[string]bool           // referees assigned to batch games
	dailyCounts  map[string]map[string]int // date key → refereeID → count
	weeklyCounts map[string]int            // refereeID → count
	unavailable  map[string]bool

	suggestions   map[string]*model.Suggestion
	gameAssigned  map[string]bool // gameID → holds active assignment
	inserted      []model.Suggestion
	deletedBefore time.Time

	errs map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		windows:      map[string][]model.AvailabilityWindow{},
		bookings:     map[string][]model.Booking{},
		rated:        map[string][]model.RatedAssignment{},
		atLevel:      map[string][]model.RatedAssignment{},
		assignedRefs: map[string]bool{},
		dailyCounts:  map[string]map[string]int{},
		weeklyCounts: map[string]int{},
		unavailable:  map[string]bool{},
		suggestions:  map[string]*model.Suggestion{},
		gameAssigned: map[string]bool{},
		errs:         map[string]error{},
	}
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

func (f *fakeStore) GamesByIDs(ctx context.Context, ids []string) ([]model.Game, error) {
	if err := f.errs["GamesByIDs"]; err != nil {
		return nil, err
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Game
	for _, g := range f.games {
		if want[g.ID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) ListReferees(ctx context.Context) ([]model.Referee, error) {
	return f.referees, f.errs["ListReferees"]
}

func (f *fakeStore) ActiveRefereeIDsForGames(ctx context.Context, gameIDs []string) (map[string]bool, error) {
	return f.assignedRefs, f.errs["ActiveRefereeIDsForGames"]
}

func (f *fakeStore) ActiveCountsOn(ctx context.Context, date time.Time) (map[string]int, error) {
	if err := f.errs["ActiveCountsOn"]; err != nil {
		return nil, err
	}
	return f.dailyCounts[dateKey(date)], nil
}

func (f *fakeStore) ActiveCountsBetween(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return f.weeklyCounts, f.errs["ActiveCountsBetween"]
}

func (f *fakeStore) BookingsOn(ctx context.Context, refereeID string, date time.Time) ([]model.Booking, error) {
	if err := f.errs["BookingsOn"]; err != nil {
		return nil, err
	}
	var out []model.Booking
	for _, b := range f.bookings[refereeID] {
		if model.SameDate(b.GameDate, date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) WindowsOn(ctx context.Context, refereeID string, date time.Time) ([]model.AvailabilityWindow, error) {
	if err := f.errs["WindowsOn"]; err != nil {
		return nil, err
	}
	var out []model.AvailabilityWindow
	for _, w := range f.windows[refereeID] {
		if model.SameDate(w.Date, date) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeStore) UnavailableRefereeIDs(ctx context.Context, games []model.Game) (map[string]bool, error) {
	return f.unavailable, f.errs["UnavailableRefereeIDs"]
}

func (f *fakeStore) CompletedRatedSince(ctx context.Context, refereeID string, since time.Time) ([]model.RatedAssignment, error) {
	if err := f.errs["CompletedRatedSince"]; err != nil {
		return nil, err
	}
	return f.rated[refereeID], nil
}

func (f *fakeStore) CompletedAtLevelSince(ctx context.Context, refereeID, level string, since time.Time) ([]model.RatedAssignment, error) {
	if err := f.errs["CompletedAtLevelSince"]; err != nil {
		return nil, err
	}
	return f.atLevel[refereeID+"|"+level], nil
}

func (f *fakeStore) InsertSuggestion(ctx context.Context, s model.Suggestion) error {
	if err := f.errs["InsertSuggestion"]; err != nil {
		return err
	}
	cp := s
	f.suggestions[s.ID] = &cp
	f.inserted = append(f.inserted, s)
	return nil
}

func (f *fakeStore) GetSuggestion(ctx context.Context, id string) (model.Suggestion, error) {
	s, ok := f.suggestions[id]
	if !ok {
		return model.Suggestion{}, suggest.ErrNotFound
	}
	return *s, nil
}

func (f *fakeStore) ListSuggestions(ctx context.Context, lf suggest.ListFilter) ([]suggest.SuggestionRow, int, error) {
	if err := f.errs["ListSuggestions"]; err != nil {
		return nil, 0, err
	}
	var rows []suggest.SuggestionRow
	for _, s := range f.suggestions {
		if lf.Status != "" && string(s.Status) != lf.Status {
			continue
		}
		rows = append(rows, suggest.SuggestionRow{Suggestion: *s})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Confidence > rows[j].Confidence })
	return rows, len(rows), nil
}

func (f *fakeStore) AcceptPending(ctx context.Context, suggestionID, actor string) (model.Suggestion, model.Assignment, error) {
	if err := f.errs["AcceptPending"]; err != nil {
		return model.Suggestion{}, model.Assignment{}, err
	}
	s, ok := f.suggestions[suggestionID]
	if !ok || s.Status != model.SuggestionPending {
		return model.Suggestion{}, model.Assignment{}, suggest.ErrNotFound
	}
	if f.gameAssigned[s.GameID] {
		return model.Suggestion{}, model.Assignment{}, suggest.ErrGameAssigned
	}
	now := time.Now()
	s.Status = model.SuggestionAccepted
	s.ProcessedBy = &actor
	s.ProcessedAt = &now
	f.gameAssigned[s.GameID] = true
	asg := model.Assignment{
		ID:         "asg-" + suggestionID,
		GameID:     s.GameID,
		RefereeID:  s.RefereeID,
		AssignedBy: actor,
		Status:     model.AssignmentPending,
		CreatedAt:  now,
	}
	return *s, asg, nil
}

func (f *fakeStore) RejectPending(ctx context.Context, suggestionID, actor, reason string) (model.Suggestion, error) {
	if err := f.errs["RejectPending"]; err != nil {
		return model.Suggestion{}, err
	}
	s, ok := f.suggestions[suggestionID]
	if !ok || s.Status != model.SuggestionPending {
		return model.Suggestion{}, suggest.ErrNotFound
	}
	now := time.Now()
	s.Status = model.SuggestionRejected
	s.ProcessedBy = &actor
	s.ProcessedAt = &now
	if reason != "" {
		s.RejectionReason = &reason
	}
	return *s, nil
}

func (f *fakeStore) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.deletedBefore = cutoff
	var n int64
	for id, s := range f.suggestions {
		if s.Status != model.SuggestionPending && s.ProcessedAt != nil && s.ProcessedAt.Before(cutoff) {
			delete(f.suggestions, id)
			n++
		}
	}
	return n, f.errs["DeleteProcessedBefore"]
}

// ─── Shared test fixtures ─────────────────────────────────────────────────────

func testLogger() *slog.Logger { return slog.Default() }

func testDate() time.Time {
	return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC) // a Saturday
}

func testGame(id, start string) model.Game {
	return model.Game{
		ID:         id,
		Date:       testDate(),
		StartTime:  start,
		Venue:      "Central Arena",
		PostalCode: "K1A 0B1",
		Level:      model.LevelJunior,
	}
}

func testReferee(id string) model.Referee {
	return model.Referee{
		ID:          id,
		Name:        "Referee " + id,
		PostalCode:  "K1A 0B1",
		Level:       model.LevelJunior,
		IsAvailable: true,
	}
}

func intPtr(n int) *int { return &n }
