package mycontentapi

import (
	"context"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/sync/errgroup"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/mycontent"
	types "github.com/desain-gratis/media-console/types/http"
)

type dashboard struct {
	ucs []mycontent.Usecase
}

// NewDashboard serves the record count of every kind, keyed by collection
func NewDashboard(ucs ...mycontent.Usecase) *dashboard {
	return &dashboard{ucs: ucs}
}

func (d *dashboard) Register(router *httprouter.Router, auth Authorization) {
	router.GET("/dashboard", WithAuthorization(auth, d.Counts))
}

func (d *dashboard) Counts(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	counts, err := d.count(r.Context())
	if err != nil {
		handleUsecaseError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, &types.CommonResponse{
		Success: counts,
	})
}

func (d *dashboard) count(ctx context.Context) (map[string]int, error) {
	var mtx sync.Mutex
	result := make(map[string]int, len(d.ucs))

	eg, ctx := errgroup.WithContext(ctx)
	for _, uc := range d.ucs {
		eg.Go(func() error {
			n, err := uc.Count(ctx)
			if err != nil {
				return err
			}
			mtx.Lock()
			result[uc.Kind().Collection] = n
			mtx.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
