package workers

import (
	"fmt"
	"log"
	"sync"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/repository"
)

// AttendanceWriter decouples the hot recognition path from storage latency:
// marks are answered immediately and committed here by a dedicated writer.
// A single worker serializes all writes, which together with the
// (user, date) transaction in the repository rules out interleaved updates
// to one day's row.
type AttendanceWriter struct {
	JobQueue chan *models.Attendance
	Repo     repository.AttendanceRepositoryInterface
	Wg       sync.WaitGroup
	StopChan chan struct{}
	// Pending stages the latest record per (user, date) row. A queued job is
	// only a wakeup; the worker always commits the staged record, so a mark
	// that lands while a commit for the same row is queued replaces the
	// staged state instead of being dropped.
	Pending map[string]*models.Attendance
	Mutex   sync.Mutex
}

func NewAttendanceWriter(repo repository.AttendanceRepositoryInterface, queueSize int) *AttendanceWriter {
	if queueSize <= 0 {
		queueSize = 100
	}
	w := &AttendanceWriter{
		JobQueue: make(chan *models.Attendance, queueSize),
		Repo:     repo,
		StopChan: make(chan struct{}),
		Pending:  make(map[string]*models.Attendance),
	}
	w.Wg.Add(1)
	go w.worker()
	log.Printf("Started attendance writer with queue size %d", queueSize)
	return w
}

// Enqueue queues a record for durable write without blocking. It returns
// false when the queue is full; callers decide whether to surface that.
func (w *AttendanceWriter) Enqueue(record *models.Attendance) bool {
	key := pendingKey(record)

	w.Mutex.Lock()
	if _, queued := w.Pending[key]; queued {
		// A commit for this row is already queued; restage so the worker
		// writes this latest mutation instead of the superseded one.
		w.Pending[key] = record
		w.Mutex.Unlock()
		return true
	}
	w.Mutex.Unlock()

	select {
	case w.JobQueue <- record:
		w.Mutex.Lock()
		w.Pending[key] = record
		w.Mutex.Unlock()
		return true
	default:
		log.Printf("Writer: queue full, rejecting commit for attendance row %d", record.ID)
		return false
	}
}

func (w *AttendanceWriter) worker() {
	defer w.Wg.Done()
	log.Printf("Attendance writer started")
	for {
		select {
		case record, ok := <-w.JobQueue:
			if !ok {
				log.Printf("Attendance writer stopping: job queue closed")
				return
			}
			w.commit(record)
		case <-w.StopChan:
			// Drain whatever is already queued before exiting so accepted
			// marks are not lost on shutdown.
			for {
				select {
				case record := <-w.JobQueue:
					w.commit(record)
				default:
					log.Printf("Attendance writer stopping: stop signal received")
					return
				}
			}
		}
	}
}

func (w *AttendanceWriter) commit(record *models.Attendance) {
	key := pendingKey(record)

	// Take the freshest staged record for this row and clear the stage;
	// an Enqueue arriving after this point queues a new job.
	w.Mutex.Lock()
	if staged, ok := w.Pending[key]; ok {
		record = staged
	}
	delete(w.Pending, key)
	w.Mutex.Unlock()

	if err := w.Repo.Commit(record); err != nil {
		log.Printf("Writer: ERROR committing attendance row %d (%s): %v", record.ID, record.Date, err)
		return
	}
	log.Printf("Writer: committed attendance row %d for %s (%s)", record.ID, record.UserName, record.Date)
}

// Stop signals the writer and waits for the queue to drain.
func (w *AttendanceWriter) Stop() {
	close(w.StopChan)
	w.Wg.Wait()
}

func pendingKey(record *models.Attendance) string {
	userID := uint(0)
	if record.UserID != nil {
		userID = *record.UserID
	}
	return fmt.Sprintf("%d:%s", userID, record.Date)
}
