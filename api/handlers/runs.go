package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/dirtyfeed/api/responses"
	"github.com/angelmondragon/dirtyfeed/internal/ledger"
	pkgerrors "github.com/angelmondragon/dirtyfeed/pkg/errors"
	"github.com/angelmondragon/dirtyfeed/pkg/logger"
)

// PassRuns lists the ledger rows written during one pass.
func PassRuns(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		passID := strings.TrimSpace(chi.URLParam(r, "passId"))
		if passID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "pass id is required"))
			return
		}

		runs, err := svc.PassRuns(r.Context(), passID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger query failed"))
			return
		}
		if len(runs) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "pass not found"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"pass_id": passID, "runs": runs})
	}
}

// LastUpload reports the latest successful upload of an artifact.
func LastUpload(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artifact := strings.TrimSpace(chi.URLParam(r, "artifact"))
		run, err := svc.LastUpload(r.Context(), artifact)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger query failed"))
			return
		}
		if run == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "artifact never uploaded"))
			return
		}
		responses.WriteSuccess(w, run)
	}
}
