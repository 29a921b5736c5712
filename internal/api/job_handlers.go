package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
)

// GetJob returns the Commserve's summary of a job.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		job, err := cc.Job(chi.URLParam(r, "id"))
		if err != nil {
			return nil, err
		}
		return job.Summary(ctx)
	})
}
