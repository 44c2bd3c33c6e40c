package service

import (
	"errors"
	"os"
	"testing"
	"time"

	"nestcare/internal/clock"
	"nestcare/internal/database"
	"nestcare/internal/models"
	"nestcare/internal/repository"
)

type testEnv struct {
	clk          *clock.Clock
	parties      *repository.PartyRepository
	relationRepo *repository.RelationRepository
	timelines    *TimelineService
	relations    *RelationService
	careLogs     *CareLogService
}

func newTestEnv(t *testing.T, dbPath string, retainRejected bool) *testEnv {
	t.Helper()

	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	clk, err := clock.New("UTC")
	if err != nil {
		t.Fatalf("Failed to load clock: %v", err)
	}

	emailService, err := NewEmailService("", "", "", "", false)
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}

	partyRepo := repository.NewPartyRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	relationRepo := repository.NewRelationRepository(db)
	careLogRepo := repository.NewCareLogRepository(db)

	relationService := NewRelationService(relationRepo, timelineRepo, partyRepo, emailService, retainRejected)

	return &testEnv{
		clk:          clk,
		parties:      partyRepo,
		relationRepo: relationRepo,
		timelines:    NewTimelineService(timelineRepo, relationService, clk),
		relations:    relationService,
		careLogs:     NewCareLogService(careLogRepo, relationService),
	}
}

func (env *testEnv) addParty(t *testing.T, name string) *models.Party {
	t.Helper()
	party, err := env.parties.CreateParty(name, name+"@example.com")
	if err != nil {
		t.Fatalf("Failed to create party %s: %v", name, err)
	}
	return party
}

func TestRelationWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, "test_relation_workflow.db", false)

	guardian := env.addParty(t, "guardian")
	relative := env.addParty(t, "relative")
	stranger := env.addParty(t, "stranger")

	lmp := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	timeline, err := env.timelines.CreateTimeline("bean", lmp, nil, 0, guardian.ID)
	if err != nil {
		t.Fatalf("CreateTimeline() error = %v", err)
	}

	// Creating a timeline grants the creator guardianship in the same
	// transaction.
	canEdit, err := env.relations.CanEdit(timeline.ID, guardian.ID)
	if err != nil {
		t.Fatalf("CanEdit() error = %v", err)
	}
	if !canEdit {
		t.Error("creator should be able to edit their timeline")
	}

	// A second timeline with the same nickname is refused.
	if _, err := env.timelines.CreateTimeline("bean", lmp, nil, 0, guardian.ID); !errors.Is(err, ErrNicknameTaken) {
		t.Errorf("CreateTimeline(duplicate) error = %v, want ErrNicknameTaken", err)
	}

	// Request by nickname creates a pending relation.
	relation, created, err := env.relations.Request("bean", relative.ID)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if !created {
		t.Error("Request() created = false, want true")
	}
	if relation.Status != models.StatusPending {
		t.Errorf("Request() status = %v, want pending", relation.Status)
	}
	if relation.Reference == "" {
		t.Error("Request() reference should be populated")
	}

	// Repeating the request returns the existing record.
	again, created, err := env.relations.Request("bean", relative.ID)
	if err != nil {
		t.Fatalf("Request(repeat) error = %v", err)
	}
	if created {
		t.Error("Request(repeat) created = true, want false")
	}
	if again.ID != relation.ID {
		t.Errorf("Request(repeat) id = %d, want %d", again.ID, relation.ID)
	}

	// Pending status grants nothing.
	canView, err := env.relations.CanView(timeline.ID, relative.ID)
	if err != nil {
		t.Fatalf("CanView() error = %v", err)
	}
	if canView {
		t.Error("pending requester should not be able to view")
	}

	// Only a guardian may decide.
	if _, err := env.relations.Decide(relation.ID, stranger.ID, models.StatusRelative); !errors.Is(err, ErrForbidden) {
		t.Errorf("Decide(stranger) error = %v, want ErrForbidden", err)
	}
	if _, err := env.relations.Decide(relation.ID, relative.ID, models.StatusRelative); !errors.Is(err, ErrForbidden) {
		t.Errorf("Decide(self) error = %v, want ErrForbidden", err)
	}

	// Pending is not a grantable decision.
	if _, err := env.relations.Decide(relation.ID, guardian.ID, models.StatusPending); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("Decide(pending) error = %v, want ErrInvalidDecision", err)
	}

	decided, err := env.relations.Decide(relation.ID, guardian.ID, models.StatusRelative)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decided.Status != models.StatusRelative {
		t.Errorf("Decide() status = %v, want relative", decided.Status)
	}
	if decided.ApproverID == nil || *decided.ApproverID != guardian.ID {
		t.Errorf("Decide() approver = %v, want %d", decided.ApproverID, guardian.ID)
	}
	if decided.DecidedAt == nil {
		t.Error("Decide() should stamp the decision time")
	}

	// A decided relation cannot be decided again.
	if _, err := env.relations.Decide(relation.ID, guardian.ID, models.StatusCaregiver); !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("Decide(again) error = %v, want ErrAlreadyDecided", err)
	}

	// Access follows the granted tier.
	canView, err = env.relations.CanView(timeline.ID, relative.ID)
	if err != nil {
		t.Fatalf("CanView() error = %v", err)
	}
	if !canView {
		t.Error("relative should be able to view after approval")
	}

	// Relatives edit but do not approve.
	pending, _, err := env.relations.Request("bean", stranger.ID)
	if err != nil {
		t.Fatalf("Request(stranger) error = %v", err)
	}
	if _, err := env.relations.Decide(pending.ID, relative.ID, models.StatusCaregiver); !errors.Is(err, ErrForbidden) {
		t.Errorf("Decide(by relative) error = %v, want ErrForbidden", err)
	}
}

func TestDecideConcurrentDeciders(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, "test_decide_concurrent.db", false)

	founder := env.addParty(t, "founder")
	coGuardian := env.addParty(t, "co-guardian")
	applicant := env.addParty(t, "applicant")

	lmp := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := env.timelines.CreateTimeline("twig", lmp, nil, 0, founder.ID); err != nil {
		t.Fatalf("CreateTimeline() error = %v", err)
	}

	// Promote a second guardian so two parties may decide.
	joint, _, err := env.relations.Request("twig", coGuardian.ID)
	if err != nil {
		t.Fatalf("Request(co-guardian) error = %v", err)
	}
	if _, err := env.relations.Decide(joint.ID, founder.ID, models.StatusGuardian); err != nil {
		t.Fatalf("Decide(co-guardian) error = %v", err)
	}

	pending, _, err := env.relations.Request("twig", applicant.ID)
	if err != nil {
		t.Fatalf("Request(applicant) error = %v", err)
	}

	// Both guardians decide the same pending record at once: exactly one
	// wins, the other observes the already-decided outcome.
	deciders := []struct {
		partyID int64
		status  models.RelationStatus
	}{
		{founder.ID, models.StatusRelative},
		{coGuardian.ID, models.StatusCaregiver},
	}

	results := make(chan error, len(deciders))
	for _, d := range deciders {
		go func(partyID int64, status models.RelationStatus) {
			_, err := env.relations.Decide(pending.ID, partyID, status)
			results <- err
		}(d.partyID, d.status)
	}

	var wins, already int
	for range deciders {
		switch err := <-results; {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyDecided):
			already++
		default:
			t.Errorf("Decide() unexpected error = %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("concurrent Decide() wins = %d, want 1", wins)
	}
	if already != 1 {
		t.Errorf("concurrent Decide() already-decided = %d, want 1", already)
	}

	final, err := env.relationRepo.GetRelationByID(pending.ID)
	if err != nil {
		t.Fatalf("GetRelationByID() error = %v", err)
	}
	if final == nil || final.Status == models.StatusPending {
		t.Errorf("relation after concurrent decide = %+v, want a granted status", final)
	}
}

func TestRejectionRemovesRecordByDefault(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, "test_rejection_default.db", false)

	guardian := env.addParty(t, "guardian")
	applicant := env.addParty(t, "applicant")

	lmp := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := env.timelines.CreateTimeline("sprout", lmp, nil, 0, guardian.ID); err != nil {
		t.Fatalf("CreateTimeline() error = %v", err)
	}

	relation, _, err := env.relations.Request("sprout", applicant.ID)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	if _, err := env.relations.Decide(relation.ID, guardian.ID, models.StatusRejected); err != nil {
		t.Fatalf("Decide(reject) error = %v", err)
	}

	// The record is gone, so the applicant may request again.
	again, created, err := env.relations.Request("sprout", applicant.ID)
	if err != nil {
		t.Fatalf("Request(after rejection) error = %v", err)
	}
	if !created {
		t.Error("rejection should leave room for a fresh request")
	}
	if again.ID == relation.ID {
		t.Error("fresh request should be a new record")
	}
}

func TestRejectionRetainedWhenConfigured(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, "test_rejection_retained.db", true)

	guardian := env.addParty(t, "guardian")
	applicant := env.addParty(t, "applicant")

	lmp := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := env.timelines.CreateTimeline("sprout", lmp, nil, 0, guardian.ID); err != nil {
		t.Fatalf("CreateTimeline() error = %v", err)
	}

	relation, _, err := env.relations.Request("sprout", applicant.ID)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	rejected, err := env.relations.Decide(relation.ID, guardian.ID, models.StatusRejected)
	if err != nil {
		t.Fatalf("Decide(reject) error = %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("Decide(reject) status = %v, want rejected", rejected.Status)
	}

	// The retained record blocks a second request and stays rejected.
	again, created, err := env.relations.Request("sprout", applicant.ID)
	if err != nil {
		t.Fatalf("Request(after rejection) error = %v", err)
	}
	if created {
		t.Error("retained rejection should block a fresh request")
	}
	if again.Status != models.StatusRejected {
		t.Errorf("retained status = %v, want rejected", again.Status)
	}

	canView, err := env.relations.CanView(relation.TimelineID, applicant.ID)
	if err != nil {
		t.Fatalf("CanView() error = %v", err)
	}
	if canView {
		t.Error("rejected party should not be able to view")
	}
}

func TestRecordBirthAndAges(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, "test_record_birth.db", false)

	guardian := env.addParty(t, "guardian")
	stranger := env.addParty(t, "stranger")

	lmp := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	timeline, err := env.timelines.CreateTimeline("pip", lmp, nil, 0, guardian.ID)
	if err != nil {
		t.Fatalf("CreateTimeline() error = %v", err)
	}

	// Outsiders cannot record a birth.
	birthday := time.Date(2023, 9, 15, 8, 30, 0, 0, time.UTC)
	if _, err := env.timelines.RecordBirth(timeline.ID, stranger.ID, birthday); !errors.Is(err, ErrForbidden) {
		t.Errorf("RecordBirth(stranger) error = %v, want ErrForbidden", err)
	}

	// A birth before the LMP is impossible.
	tooEarly := time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC)
	if _, err := env.timelines.RecordBirth(timeline.ID, guardian.ID, tooEarly); !errors.Is(err, models.ErrEarlierThanLMP) {
		t.Errorf("RecordBirth(before LMP) error = %v, want ErrEarlierThanLMP", err)
	}

	// A future birthday would store a classification for an unborn child.
	future := time.Now().AddDate(0, 0, 2)
	if _, err := env.timelines.RecordBirth(timeline.ID, guardian.ID, future); !errors.Is(err, ErrBirthdayInFuture) {
		t.Errorf("RecordBirth(future) error = %v, want ErrBirthdayInFuture", err)
	}

	born, err := env.timelines.RecordBirth(timeline.ID, guardian.ID, birthday)
	if err != nil {
		t.Fatalf("RecordBirth() error = %v", err)
	}
	if born.Birthday == nil {
		t.Fatal("RecordBirth() should store the birthday")
	}
	// Gestational day 258: classified preterm once, at recording time.
	if born.Preterm == nil || !*born.Preterm {
		t.Errorf("RecordBirth() preterm = %v, want true", born.Preterm)
	}

	// A second birth is refused.
	if _, err := env.timelines.RecordBirth(timeline.ID, guardian.ID, birthday); !errors.Is(err, ErrAlreadyBorn) {
		t.Errorf("RecordBirth(again) error = %v, want ErrAlreadyBorn", err)
	}

	// Full report after birth.
	asOf := time.Date(2023, 9, 20, 0, 0, 0, 0, time.UTC)
	report, err := env.timelines.Ages(timeline.ID, guardian.ID, &asOf)
	if err != nil {
		t.Fatalf("Ages() error = %v", err)
	}
	if report.DaysSinceLMP != 263 {
		t.Errorf("Ages() days since LMP = %d, want 263", report.DaysSinceLMP)
	}
	if !report.Born {
		t.Error("Ages() born = false, want true")
	}
	if !report.Preterm {
		t.Error("Ages() preterm = false, want true")
	}
	if report.ChronologicalAgeDays == nil || *report.ChronologicalAgeDays != 6 {
		t.Errorf("Ages() chronological = %v, want 6", report.ChronologicalAgeDays)
	}
	if report.CorrectedAgeDays == nil || *report.CorrectedAgeDays != -17 {
		t.Errorf("Ages() corrected = %v, want -17", report.CorrectedAgeDays)
	}

	// Before birth the birth-relative ages are absent, not an error.
	before := time.Date(2023, 9, 10, 0, 0, 0, 0, time.UTC)
	report, err = env.timelines.Ages(timeline.ID, guardian.ID, &before)
	if err != nil {
		t.Fatalf("Ages(before birth) error = %v", err)
	}
	if report.Born {
		t.Error("Ages(before birth) born = true, want false")
	}
	if report.ChronologicalAgeDays != nil {
		t.Errorf("Ages(before birth) chronological = %v, want nil", report.ChronologicalAgeDays)
	}
	if report.PostmenstrualAgeDays != nil {
		t.Errorf("Ages(before birth) postmenstrual = %v, want nil", report.PostmenstrualAgeDays)
	}

	// Strangers cannot read the report at all.
	if _, err := env.timelines.Ages(timeline.ID, stranger.ID, &asOf); !errors.Is(err, ErrForbidden) {
		t.Errorf("Ages(stranger) error = %v, want ErrForbidden", err)
	}
}

func TestCareLogAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, "test_care_logs.db", false)

	guardian := env.addParty(t, "guardian")
	stranger := env.addParty(t, "stranger")

	lmp := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	timeline, err := env.timelines.CreateTimeline("pip", lmp, nil, 0, guardian.ID)
	if err != nil {
		t.Fatalf("CreateTimeline() error = %v", err)
	}

	feeding, err := env.careLogs.AddFeeding(guardian.ID, &models.Feeding{
		TimelineID: timeline.ID,
		FedAt:      env.clk.Now(),
		AmountML:   120,
		Note:       "formula",
	})
	if err != nil {
		t.Fatalf("AddFeeding() error = %v", err)
	}
	if feeding.RecordedBy != guardian.ID {
		t.Errorf("AddFeeding() recorded_by = %d, want %d", feeding.RecordedBy, guardian.ID)
	}

	if _, err := env.careLogs.AddFeeding(stranger.ID, &models.Feeding{
		TimelineID: timeline.ID,
		FedAt:      env.clk.Now(),
		AmountML:   90,
	}); !errors.Is(err, ErrForbidden) {
		t.Errorf("AddFeeding(stranger) error = %v, want ErrForbidden", err)
	}

	feedings, err := env.careLogs.ListFeedings(timeline.ID, guardian.ID, 0)
	if err != nil {
		t.Fatalf("ListFeedings() error = %v", err)
	}
	if len(feedings) != 1 {
		t.Fatalf("ListFeedings() returned %d rows, want 1", len(feedings))
	}
	if feedings[0].AmountML != 120 {
		t.Errorf("ListFeedings() amount = %v, want 120", feedings[0].AmountML)
	}

	if _, err := env.careLogs.ListFeedings(timeline.ID, stranger.ID, 0); !errors.Is(err, ErrForbidden) {
		t.Errorf("ListFeedings(stranger) error = %v, want ErrForbidden", err)
	}
}
