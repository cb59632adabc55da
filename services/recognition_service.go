package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/recognition"
	"github.com/facetrack/facetrackbackend/repository"
)

// ErrInvalidAction is returned when the mark request names an action the
// attendance workflow does not know.
var ErrInvalidAction = errors.New("invalid_action")

// AttendanceCommitter queues a mutated record for durable write. The hot
// recognition path never waits on storage; the public API reports the
// intended status immediately and the persisted write follows shortly.
type AttendanceCommitter interface {
	Enqueue(record *models.Attendance) bool
}

// EventSink receives confirmed recognition and attendance events for live
// observers (the kiosk dashboard websocket).
type EventSink interface {
	Publish(eventType, name, status string, score float64)
}

// PreviewResult is the per-face answer of a preview pass: the current match
// verdict plus where the face sits in the confirmation lifecycle. Preview
// never writes.
type PreviewResult struct {
	Name        string                  `json:"name"`
	Box         recognition.Box         `json:"box"`
	Score       float64                 `json:"score"`
	MatchStatus recognition.MatchStatus `json:"match_status"`
	TrackStatus string                  `json:"track_status"`
}

// Durations reports the derived per-day work figures after a mutation.
type Durations struct {
	TotalWorkSecs  int64 `json:"total_work_secs"`
	BreakSecs      int64 `json:"break_secs"`
	ActualWorkSecs int64 `json:"actual_work_secs"`
}

// MarkResult is the per-face answer of a mark pass.
type MarkResult struct {
	Name      string          `json:"name"`
	Box       recognition.Box `json:"box"`
	Status    string          `json:"status"`
	Durations *Durations      `json:"durations,omitempty"`
}

// RecognitionService is the engine facade consumed by the HTTP layer: it
// owns the embedding store, matcher, tracking sessions and trainer, and
// drives the attendance workflow for confirmed identities.
type RecognitionService struct {
	users      repository.UserRepositoryInterface
	attendance repository.AttendanceRepositoryInterface
	store      *recognition.Store
	matcher    *recognition.Matcher
	tracker    *recognition.Tracker
	trainer    *recognition.Trainer
	committer  AttendanceCommitter
	events     EventSink
	fallback   float64
	now        func() time.Time
}

func NewRecognitionService(
	users repository.UserRepositoryInterface,
	attendance repository.AttendanceRepositoryInterface,
	store *recognition.Store,
	matcher *recognition.Matcher,
	tracker *recognition.Tracker,
	trainer *recognition.Trainer,
	committer AttendanceCommitter,
	events EventSink,
	fallbackThreshold float64,
) *RecognitionService {
	return &RecognitionService{
		users:      users,
		attendance: attendance,
		store:      store,
		matcher:    matcher,
		tracker:    tracker,
		trainer:    trainer,
		committer:  committer,
		events:     events,
		fallback:   fallbackThreshold,
		now:        time.Now,
	}
}

// RefreshEmbeddings reloads the index from a full repository snapshot. On a
// load failure the previous snapshot keeps serving.
func (s *RecognitionService) RefreshEmbeddings() error {
	identities, err := s.users.LoadActiveIdentities()
	if err != nil {
		return fmt.Errorf("embedding refresh failed, previous index retained: %w", err)
	}
	s.store.Reload(identities)
	return nil
}

// PreviewFrame runs a frame's detections through matching and tracking with
// no attendance side effects.
func (s *RecognitionService) PreviewFrame(detections []recognition.Detection) []PreviewResult {
	results := make([]PreviewResult, 0, len(detections))
	for _, det := range detections {
		tracked := s.tracker.Observe(det.Embedding)
		results = append(results, PreviewResult{
			Name:        tracked.Name,
			Box:         det.Box,
			Score:       tracked.Score,
			MatchStatus: tracked.Status,
			TrackStatus: string(tracked.State),
		})
	}
	return results
}

// MarkAttendance applies one action for every confirmed face in the frame.
// Unconfirmed faces are surfaced but never reach the workflow. A repository
// failure is returned as a retryable error with tracking state untouched, so
// the caller can retry without re-running detection.
func (s *RecognitionService) MarkAttendance(action string, detections []recognition.Detection) ([]MarkResult, error) {
	if !ValidAction(action) {
		return nil, ErrInvalidAction
	}

	now := s.now()
	date := now.Format(models.DateLayout)

	results := make([]MarkResult, 0, len(detections))
	for _, det := range detections {
		tracked := s.tracker.Observe(det.Embedding)

		switch tracked.State {
		case recognition.TrackConfirmed:
			result, err := s.markConfirmed(tracked, det, action, date, now)
			if err != nil {
				return results, err
			}
			results = append(results, result)

		case recognition.TrackUnknown:
			results = append(results, MarkResult{Name: recognition.UnknownName, Box: det.Box, Status: "unknown"})

		default:
			status := "verifying"
			if tracked.Status == recognition.StatusMaybe {
				status = "maybe_match"
			}
			results = append(results, MarkResult{Name: tracked.Name, Box: det.Box, Status: status})
		}
	}
	return results, nil
}

func (s *RecognitionService) markConfirmed(tracked recognition.TrackedResult, det recognition.Detection, action, date string, now time.Time) (MarkResult, error) {
	record, err := s.attendance.GetOrCreateForDate(tracked.IdentityID, tracked.Name, date)
	if err != nil {
		return MarkResult{}, fmt.Errorf("attendance storage unavailable: %w", err)
	}

	status, mutated := ApplyAction(record, action, now)
	result := MarkResult{Name: tracked.Name, Box: det.Box, Status: status}

	if !mutated {
		return result, nil
	}

	result.Durations = &Durations{
		TotalWorkSecs:  record.TotalWorkSecs,
		BreakSecs:      record.BreakSecs,
		ActualWorkSecs: record.ActualWorkSecs,
	}

	if !s.committer.Enqueue(record) {
		log.Printf("RecognitionService: attendance write queue full, dropping commit for user %d on %s", tracked.IdentityID, date)
	}
	if s.events != nil {
		s.events.Publish("attendance", tracked.Name, status, tracked.Score)
	}

	// A successful mark frees the track entry; the same person lingering in
	// frame starts a fresh confirmation cycle instead of re-marking.
	s.tracker.Release(tracked.Key)

	if s.trainer != nil {
		// Re-score the mark frame itself: a sticky-confirmed track carries
		// the score frozen at confirmation time, and a weaker frame riding
		// tracking continuity must not enter the bank on that stale score.
		verdict := s.matcher.FindBestMatch(det.Embedding, s.fallback)
		if verdict.Status == recognition.StatusMatch && verdict.IdentityID == tracked.IdentityID {
			if _, err := s.trainer.MaybeUpdate(tracked.IdentityID, det.Embedding, verdict.Score); err != nil {
				log.Printf("RecognitionService: auto-train update failed for user %d: %v", tracked.IdentityID, err)
			}
		}
	}

	return result, nil
}

// ToggleAutoTrain flips the auto-train flag and returns the new state.
func (s *RecognitionService) ToggleAutoTrain() bool {
	return s.trainer.Toggle()
}

// AutoTrainStatus reports whether auto-training is currently enabled.
func (s *RecognitionService) AutoTrainStatus() bool {
	return s.trainer.Enabled()
}

// PurgeTracks runs the tracker's expiry sweep; wired to the housekeeping
// scheduler.
func (s *RecognitionService) PurgeTracks() int {
	return s.tracker.Purge()
}

// IndexStats reports identity and sample counts for the debug endpoint.
func (s *RecognitionService) IndexStats() (identities, samples int) {
	return s.store.IdentityCount(), s.store.SampleCount()
}
