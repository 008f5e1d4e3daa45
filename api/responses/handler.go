package responses

import (
	"net/http"

	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

// Reply is a handler's successful outcome.
type Reply struct {
	Status int
	Body   any
}

func OK(body any) Reply      { return Reply{Status: http.StatusOK, Body: body} }
func Created(body any) Reply { return Reply{Status: http.StatusCreated, Body: body} }

var NoContent = Reply{Status: http.StatusNoContent}

// Handler turns fn into a handler that writes the success envelope or the
// error envelope. When wired is false the service named by dep was never
// provided and every call answers INTERNAL_ERROR.
func Handler(logg *logger.Logger, dep string, wired bool, fn func(r *http.Request) (Reply, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !wired {
			WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, dep+" service unavailable"))
			return
		}
		out, err := fn(r)
		switch {
		case err != nil:
			WriteError(r.Context(), logg, w, err)
		case out.Status == http.StatusNoContent:
			w.WriteHeader(http.StatusNoContent)
		default:
			WriteSuccessStatus(w, out.Status, out.Body)
		}
	}
}
