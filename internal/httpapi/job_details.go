package httpapi

import (
	"net/http"

	"github.com/MimeLyc/yt-transcript-extractor/internal/apperr"
	"github.com/MimeLyc/yt-transcript-extractor/internal/jobs"
)

type jobDetailResponse struct {
	Job      *jobs.ExtractionJob `json:"job"`
	Progress jobProgressResponse `json:"progress"`
	Failures []jobs.Failure      `json:"failures"`
}

type jobProgressResponse struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Succeeded int `json:"succeeded"`
	Percent   int `json:"percent"`
}

func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, ok := s.queue.Get(jobID)
	if !ok {
		writeAppError(w, http.StatusNotFound, apperr.New(apperr.ErrNotFound, "job not found").WithContext("job", jobID))
		return
	}
	failures := job.Failures
	if failures == nil {
		failures = []jobs.Failure{}
	}
	writeJSON(w, http.StatusOK, jobDetailResponse{
		Job:      job,
		Progress: computeJobProgress(job),
		Failures: failures,
	})
}

func computeJobProgress(job *jobs.ExtractionJob) jobProgressResponse {
	ret := jobProgressResponse{
		Total:     job.Total(),
		Processed: job.Processed,
		Failed:    job.Failed,
		Succeeded: job.Processed - job.Failed,
	}
	if ret.Total > 0 {
		ret.Percent = ret.Processed * 100 / ret.Total
	}
	if job.Status == jobs.StatusSuccess && ret.Total > 0 {
		ret.Percent = 100
	}
	return ret
}
