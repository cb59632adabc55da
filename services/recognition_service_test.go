package services

import (
	"errors"
	"testing"
	"time"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/recognition"
	"github.com/facetrack/facetrackbackend/repository"
)

type fakeUserRepo struct {
	identities []recognition.Identity
	loadErr    error
	savedBanks int
}

func (f *fakeUserRepo) Create(*models.User) error                   { return nil }
func (f *fakeUserRepo) GetByID(uint) (*models.User, error)          { return nil, errors.New("not implemented") }
func (f *fakeUserRepo) ListAll(bool) ([]models.User, error)         { return nil, nil }
func (f *fakeUserRepo) Update(*models.User) error                   { return nil }
func (f *fakeUserRepo) Deactivate(uint) error                       { return nil }
func (f *fakeUserRepo) AppendEmbedding(uint, []float64, int) error  { return nil }
func (f *fakeUserRepo) LoadActiveIdentities() ([]recognition.Identity, error) {
	return f.identities, f.loadErr
}
func (f *fakeUserRepo) SaveEmbeddingBank(uint, [][]float64, []float64, float64) error {
	f.savedBanks++
	return nil
}

type fakeAttendanceRepo struct {
	records   map[string]*models.Attendance
	getErr    error
	committed []*models.Attendance
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]*models.Attendance)}
}

func (f *fakeAttendanceRepo) GetOrCreateForDate(userID uint, userName, date string) (*models.Attendance, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	key := userName + "|" + date
	if rec, ok := f.records[key]; ok {
		return rec, nil
	}
	uid := userID
	rec := &models.Attendance{UserID: &uid, UserName: userName, Date: date}
	f.records[key] = rec
	return rec, nil
}

func (f *fakeAttendanceRepo) Commit(record *models.Attendance) error {
	f.committed = append(f.committed, record)
	return nil
}

func (f *fakeAttendanceRepo) GetForUserDate(uint, string) (*models.Attendance, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAttendanceRepo) ListFiltered(repository.AttendanceLogFilter) ([]models.Attendance, error) {
	return nil, nil
}

type fakeCommitter struct {
	enqueued []*models.Attendance
	full     bool
}

func (f *fakeCommitter) Enqueue(record *models.Attendance) bool {
	if f.full {
		return false
	}
	f.enqueued = append(f.enqueued, record)
	return true
}

type fakeSink struct {
	events []string
}

func (f *fakeSink) Publish(eventType, name, status string, score float64) {
	f.events = append(f.events, name+":"+status)
}

type serviceFixture struct {
	service   *RecognitionService
	users     *fakeUserRepo
	att       *fakeAttendanceRepo
	committer *fakeCommitter
	sink      *fakeSink
}

func newServiceFixture(t *testing.T, repeatCount int) *serviceFixture {
	t.Helper()

	users := &fakeUserRepo{identities: []recognition.Identity{
		{ID: 1, Name: "Alice", Samples: [][]float64{{1, 0, 0}}, Threshold: 0.40},
		{ID: 2, Name: "Bob", Samples: [][]float64{{0, 1, 0}}, Threshold: 0.40},
	}}
	att := newFakeAttendanceRepo()
	committer := &fakeCommitter{}
	sink := &fakeSink{}

	store := recognition.NewStore(10, recognition.NewNaiveSearch)
	matcher := recognition.NewMatcher(store)
	tracker := recognition.NewTracker(matcher, 0.30, recognition.TrackerConfig{RepeatCount: repeatCount})
	trainer := recognition.NewTrainer(store, users, recognition.TrainerConfig{})

	svc := NewRecognitionService(users, att, store, matcher, tracker, trainer, committer, sink, 0.30)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

	if err := svc.RefreshEmbeddings(); err != nil {
		t.Fatalf("initial refresh failed: %v", err)
	}
	return &serviceFixture{service: svc, users: users, att: att, committer: committer, sink: sink}
}

func TestRefreshEmbeddingsKeepsOldIndexOnError(t *testing.T) {
	fx := newServiceFixture(t, 1)

	fx.users.loadErr = errors.New("db down")
	if err := fx.service.RefreshEmbeddings(); err == nil {
		t.Fatal("expected refresh error")
	}

	identities, _ := fx.service.IndexStats()
	if identities != 2 {
		t.Errorf("IdentityCount = %d after failed refresh, want previous 2", identities)
	}
}

func TestPreviewFrameNeverWrites(t *testing.T) {
	fx := newServiceFixture(t, 1)

	results := fx.service.PreviewFrame([]recognition.Detection{
		{Embedding: []float64{1, 0, 0}},
		{Embedding: []float64{0, 0, 1}},
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Name != "Alice" {
		t.Errorf("first face = %q, want Alice", results[0].Name)
	}
	if results[1].Name != recognition.UnknownName {
		t.Errorf("second face = %q, want Unknown", results[1].Name)
	}
	if len(fx.att.records) != 0 || len(fx.committer.enqueued) != 0 {
		t.Error("preview produced attendance writes")
	}
}

func TestMarkAttendanceInvalidAction(t *testing.T) {
	fx := newServiceFixture(t, 1)

	_, err := fx.service.MarkAttendance("wave", []recognition.Detection{{Embedding: []float64{1, 0, 0}}})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("err = %v, want ErrInvalidAction", err)
	}
}

func TestMarkAttendanceHappyPath(t *testing.T) {
	fx := newServiceFixture(t, 1)

	results, err := fx.service.MarkAttendance(ActionCheckIn, []recognition.Detection{
		{Embedding: []float64{1, 0, 0}},
	})
	if err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Name != "Alice" || results[0].Status != StatusCheckedIn {
		t.Errorf("result = %+v, want Alice checked_in", results[0])
	}

	if len(fx.committer.enqueued) != 1 {
		t.Fatalf("enqueued %d records, want 1", len(fx.committer.enqueued))
	}
	rec := fx.committer.enqueued[0]
	if rec.CheckIn == nil || rec.UserName != "Alice" || rec.Date != "2026-03-02" {
		t.Errorf("enqueued record = %+v, want Alice checked in on 2026-03-02", rec)
	}

	if len(fx.sink.events) != 1 || fx.sink.events[0] != "Alice:checked_in" {
		t.Errorf("events = %v, want [Alice:checked_in]", fx.sink.events)
	}
}

func TestMarkAttendanceRepeatedActionIsRejectedNotError(t *testing.T) {
	fx := newServiceFixture(t, 1)
	det := []recognition.Detection{{Embedding: []float64{1, 0, 0}}}

	if _, err := fx.service.MarkAttendance(ActionCheckIn, det); err != nil {
		t.Fatalf("first mark failed: %v", err)
	}
	results, err := fx.service.MarkAttendance(ActionCheckIn, det)
	if err != nil {
		t.Fatalf("second mark errored: %v", err)
	}
	if results[0].Status != StatusAlreadyCheckedIn {
		t.Errorf("status = %q, want %q", results[0].Status, StatusAlreadyCheckedIn)
	}
	if results[0].Durations != nil {
		t.Error("rejected action carried durations")
	}
	if len(fx.committer.enqueued) != 1 {
		t.Errorf("enqueued %d records, want only the first", len(fx.committer.enqueued))
	}
}

func TestMarkAttendanceUnconfirmedFaceDoesNotWrite(t *testing.T) {
	fx := newServiceFixture(t, 3)

	results, err := fx.service.MarkAttendance(ActionCheckIn, []recognition.Detection{
		{Embedding: []float64{1, 0, 0}},
	})
	if err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}
	if results[0].Status != "verifying" {
		t.Errorf("status = %q, want verifying", results[0].Status)
	}
	if len(fx.committer.enqueued) != 0 {
		t.Error("unconfirmed face reached the attendance queue")
	}
}

func TestMarkAttendanceUnknownFace(t *testing.T) {
	fx := newServiceFixture(t, 1)

	results, err := fx.service.MarkAttendance(ActionCheckIn, []recognition.Detection{
		{Embedding: []float64{0, 0, 1}},
	})
	if err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}
	if results[0].Status != "unknown" || results[0].Name != recognition.UnknownName {
		t.Errorf("result = %+v, want unknown", results[0])
	}
	if len(fx.committer.enqueued) != 0 {
		t.Error("unknown face reached the attendance queue")
	}
}

func TestMarkAttendanceStorageErrorIsRetryable(t *testing.T) {
	fx := newServiceFixture(t, 1)
	fx.att.getErr = errors.New("db down")

	det := []recognition.Detection{{Embedding: []float64{1, 0, 0}}}
	if _, err := fx.service.MarkAttendance(ActionCheckIn, det); err == nil {
		t.Fatal("expected storage error")
	}

	// Retry after recovery succeeds without re-verifying the face.
	fx.att.getErr = nil
	results, err := fx.service.MarkAttendance(ActionCheckIn, det)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if results[0].Status != StatusCheckedIn {
		t.Errorf("retry status = %q, want %q", results[0].Status, StatusCheckedIn)
	}
}

func TestMarkAttendanceQueueFullStillAnswers(t *testing.T) {
	fx := newServiceFixture(t, 1)
	fx.committer.full = true

	results, err := fx.service.MarkAttendance(ActionCheckIn, []recognition.Detection{
		{Embedding: []float64{1, 0, 0}},
	})
	if err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}
	if results[0].Status != StatusCheckedIn {
		t.Errorf("status = %q, want %q despite full queue", results[0].Status, StatusCheckedIn)
	}
}

func TestMarkAttendanceMultipleFaces(t *testing.T) {
	fx := newServiceFixture(t, 1)

	results, err := fx.service.MarkAttendance(ActionCheckIn, []recognition.Detection{
		{Embedding: []float64{1, 0, 0}},
		{Embedding: []float64{0, 1, 0}},
	})
	if err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	names := map[string]bool{results[0].Name: true, results[1].Name: true}
	if !names["Alice"] || !names["Bob"] {
		t.Errorf("marked %v, want Alice and Bob", names)
	}
	if len(fx.committer.enqueued) != 2 {
		t.Errorf("enqueued %d records, want 2", len(fx.committer.enqueued))
	}
}

func TestMarkDoesNotTrainOnStaleConfirmationScore(t *testing.T) {
	fx := newServiceFixture(t, 1)
	fx.service.ToggleAutoTrain()

	// Confirm the track on an exact sample (score 1.0) without marking.
	fx.service.PreviewFrame([]recognition.Detection{{Embedding: []float64{1, 0, 0}}})

	// The mark frame rides tracking continuity (~0.86 to the confirmed
	// face) but its own match score sits below the training gate; the
	// frozen confirmation score must not smuggle it into the bank.
	drifted := recognition.Normalize([]float64{0.86, 0.51, 0})
	results, err := fx.service.MarkAttendance(ActionCheckIn, []recognition.Detection{
		{Embedding: drifted},
	})
	if err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}
	if results[0].Status != StatusCheckedIn {
		t.Fatalf("status = %q, want %q", results[0].Status, StatusCheckedIn)
	}
	if fx.users.savedBanks != 0 {
		t.Error("weak frame entered the bank on the stale confirmation score")
	}
}

func TestMarkTrainsOnConfidentCurrentFrame(t *testing.T) {
	fx := newServiceFixture(t, 1)
	fx.service.ToggleAutoTrain()

	fx.service.PreviewFrame([]recognition.Detection{{Embedding: []float64{1, 0, 0}}})

	// ~0.95 to the stored sample: above the score gate, below the
	// duplicate gate.
	fresh := recognition.Normalize([]float64{0.95, 0.31, 0})
	if _, err := fx.service.MarkAttendance(ActionCheckIn, []recognition.Detection{
		{Embedding: fresh},
	}); err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}
	if fx.users.savedBanks != 1 {
		t.Errorf("savedBanks = %d, want 1 from a confident mark frame", fx.users.savedBanks)
	}
}

func TestToggleAutoTrain(t *testing.T) {
	fx := newServiceFixture(t, 1)

	if fx.service.AutoTrainStatus() {
		t.Fatal("auto-train should start disabled")
	}
	if !fx.service.ToggleAutoTrain() {
		t.Error("toggle should enable")
	}
	if !fx.service.AutoTrainStatus() {
		t.Error("status should report enabled")
	}
}
