package api

import (
	"net/http"

	"github.com/dd0wney/cluso-resilience/pkg/scheduler"
)

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobInfo{}
	if s.jobs != nil {
		jobs = s.jobs.List()
	}
	s.respondJSON(w, http.StatusOK, JobsResponse{Count: len(jobs), Jobs: jobs})
}
