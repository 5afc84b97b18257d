package jobs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MimeLyc/yt-transcript-extractor/pkg/log"
)

const defaultMaxJobs = 1000

// ErrInterrupted is recorded on jobs that were pending or running when the
// process stopped. Sessions do not survive a restart, so they are not resumed.
var ErrInterrupted = errors.New("interrupted by restart")

// ProgressFunc reports how many URLs of the running job were attempted and
// which of those failed.
type ProgressFunc func(processed int, failures []Failure)

type Executor func(ctx context.Context, job *ExtractionJob, report ProgressFunc) error

type Queue struct {
	workerCount int
	maxJobs     int
	store       Store

	mu         sync.RWMutex
	jobs       map[string]*ExtractionJob
	active     map[string]string
	idCounter  uint64
	started    bool
	pendingIDs chan string

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewQueue(workerCount int, store Store) *Queue {
	if workerCount <= 0 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		workerCount: workerCount,
		maxJobs:     defaultMaxJobs,
		store:       store,
		jobs:        make(map[string]*ExtractionJob),
		active:      make(map[string]string),
		pendingIDs:  make(chan string, 1024),
		ctx:         ctx,
		cancel:      cancel,
	}
	q.hydrateFromStore(ctx)
	return q
}

// Enqueue adds a job unless the session already has one pending or running,
// in which case the existing job is returned with created=false.
func (q *Queue) Enqueue(req EnqueueRequest) (job *ExtractionJob, created bool) {
	now := time.Now()

	q.mu.Lock()
	if id, ok := q.active[req.SessionID]; ok {
		if existing, exists := q.jobs[id]; exists {
			snapshot := cloneJob(existing)
			q.mu.Unlock()
			return snapshot, false
		}
		delete(q.active, req.SessionID)
	}

	id := fmt.Sprintf("job-%d", atomic.AddUint64(&q.idCounter, 1))
	j := &ExtractionJob{
		ID:        id,
		SessionID: req.SessionID,
		Payload: JobPayload{
			URLs: slices.Clone(req.Payload.URLs),
			Type: req.Payload.Type,
		},
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	q.jobs[id] = j
	if req.SessionID != "" {
		q.active[req.SessionID] = id
	}
	started := q.started
	snapshot := cloneJob(j)
	q.mu.Unlock()

	q.persistJob(snapshot)
	if started {
		q.enqueuePendingID(id)
	}
	return snapshot, true
}

func (q *Queue) Get(id string) (*ExtractionJob, bool) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

// Active returns the pending or running job of a session.
func (q *Queue) Active(sessionID string) (*ExtractionJob, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	id, ok := q.active[sessionID]
	if !ok {
		return nil, false
	}
	job, ok := q.jobs[id]
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

// List returns all known jobs, newest first.
func (q *Queue) List() []*ExtractionJob {
	q.mu.RLock()
	ret := make([]*ExtractionJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		ret = append(ret, cloneJob(job))
	}
	q.mu.RUnlock()

	sort.Slice(ret, func(i, j int) bool {
		if !ret[i].CreatedAt.Equal(ret[j].CreatedAt) {
			return ret[i].CreatedAt.After(ret[j].CreatedAt)
		}
		return jobNumber(ret[i].ID) > jobNumber(ret[j].ID)
	})
	return ret
}

func (q *Queue) Start(exec Executor) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true

	pending := make([]*ExtractionJob, 0)
	for _, job := range q.jobs {
		if job.Status == StatusPending {
			pending = append(pending, job)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return jobNumber(pending[i].ID) < jobNumber(pending[j].ID)
	})
	q.mu.Unlock()

	for _, job := range pending {
		q.enqueuePendingID(job.ID)
	}

	for range q.workerCount {
		q.wg.Add(1)
		go q.worker(exec)
	}
}

// Stop cancels running executors and waits for the workers to exit.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.cancel()
		q.wg.Wait()
	})
}

func (q *Queue) worker(exec Executor) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case id := <-q.pendingIDs:
			job, ok := q.markRunning(id)
			if !ok {
				continue
			}

			report := func(processed int, failures []Failure) {
				q.updateProgress(id, processed, failures)
			}
			if err := exec(q.ctx, job, report); err != nil {
				q.markFailed(id, err)
				continue
			}
			q.markSuccess(id)
		}
	}
}

func (q *Queue) enqueuePendingID(id string) {
	select {
	case q.pendingIDs <- id:
	default:
		go func() {
			select {
			case q.pendingIDs <- id:
			case <-q.ctx.Done():
			}
		}()
	}
}

func (q *Queue) markRunning(id string) (*ExtractionJob, bool) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != StatusPending {
		q.mu.Unlock()
		return nil, false
	}
	job.Status = StatusRunning
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
	return snapshot, true
}

func (q *Queue) updateProgress(id string, processed int, failures []Failure) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != StatusRunning {
		q.mu.Unlock()
		return
	}
	job.Processed = processed
	job.Failed = len(failures)
	job.Failures = slices.Clone(failures)
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
}

func (q *Queue) markSuccess(id string) {
	q.finish(id, StatusSuccess, nil)
}

func (q *Queue) markFailed(id string, err error) {
	q.finish(id, StatusFailed, err)
}

func (q *Queue) finish(id string, status Status, err error) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	job.Status = status
	job.Error = ""
	if err != nil {
		job.Error = err.Error()
	}
	job.UpdatedAt = time.Now()
	q.releaseActiveLocked(job)
	pruned := q.pruneTerminalJobsLocked()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	if err != nil {
		log.Warn("Job %s for session %s failed: %v", id, snapshot.SessionID, err)
	} else {
		log.Info("Job %s for session %s finished (%d/%d, %d failed)",
			id, snapshot.SessionID, snapshot.Processed, snapshot.Total(), snapshot.Failed)
	}

	q.persistJob(snapshot)
	q.deleteJobsFromStore(pruned)
}

func (q *Queue) releaseActiveLocked(job *ExtractionJob) {
	if job == nil || job.SessionID == "" {
		return
	}
	if id, ok := q.active[job.SessionID]; ok && id == job.ID {
		delete(q.active, job.SessionID)
	}
}

// pruneTerminalJobsLocked drops the oldest finished jobs once more than
// maxJobs are held.
func (q *Queue) pruneTerminalJobsLocked() []string {
	if q.maxJobs <= 0 || len(q.jobs) <= q.maxJobs {
		return nil
	}

	terminal := make([]*ExtractionJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		if job != nil && job.Status.Terminal() {
			terminal = append(terminal, job)
		}
	}
	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].UpdatedAt.Before(terminal[j].UpdatedAt)
	})

	toRemove := min(len(q.jobs)-q.maxJobs, len(terminal))
	pruned := make([]string, 0, toRemove)
	for _, job := range terminal[:toRemove] {
		q.releaseActiveLocked(job)
		delete(q.jobs, job.ID)
		pruned = append(pruned, job.ID)
	}
	return pruned
}

func (q *Queue) deleteJobsFromStore(ids []string) {
	if q.store == nil || len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if err := q.store.DeleteJob(context.Background(), id); err != nil {
			log.Error("Failed to delete pruned job %s from store: %v", id, err)
		}
	}
}

// hydrateFromStore reloads persisted jobs as history. Jobs that were pending
// or running when the process stopped are marked failed with ErrInterrupted.
func (q *Queue) hydrateFromStore(ctx context.Context) {
	if q.store == nil {
		return
	}
	loaded, err := q.store.LoadJobs(ctx)
	if err != nil {
		log.Error("Failed to load jobs from store: %v", err)
		return
	}

	now := time.Now()
	toPersist := make([]*ExtractionJob, 0)
	q.mu.Lock()
	for _, raw := range loaded {
		if raw == nil || raw.ID == "" {
			continue
		}
		job := cloneJob(raw)
		if !job.Status.Terminal() {
			job.Status = StatusFailed
			job.Error = ErrInterrupted.Error()
			job.UpdatedAt = now
			toPersist = append(toPersist, cloneJob(job))
		}
		q.jobs[job.ID] = job
		if n := jobNumber(job.ID); n > q.idCounter {
			q.idCounter = n
		}
	}
	q.mu.Unlock()

	if len(loaded) > 0 {
		log.Info("Loaded %d job(s) from store, %d marked interrupted", len(loaded), len(toPersist))
	}
	for _, job := range toPersist {
		q.persistJob(job)
	}
}

func jobNumber(jobID string) uint64 {
	if !strings.HasPrefix(jobID, "job-") {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(jobID, "job-"), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (q *Queue) persistJob(job *ExtractionJob) {
	if q.store == nil || job == nil {
		return
	}
	if err := q.store.UpsertJob(context.Background(), job); err != nil {
		log.Error("Failed to persist job %s: %v", job.ID, err)
	}
}

func cloneJob(job *ExtractionJob) *ExtractionJob {
	if job == nil {
		return nil
	}
	tmp := *job
	tmp.Payload.URLs = slices.Clone(job.Payload.URLs)
	tmp.Failures = slices.Clone(job.Failures)
	return &tmp
}
