package mycontentapi

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/mycontent"
	mycontent_base "github.com/desain-gratis/media-console/delivery/mycontent-api/mycontent/base"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
	"github.com/desain-gratis/media-console/types/entity"
	types "github.com/desain-gratis/media-console/types/http"
)

// form fields, the asset part has its own limit
const maximumRequestLength = 1 << 20
const maximumRequestLengthAttachment = 100 << 20

type service struct {
	uc           mycontent.Usecase
	cacheControl string
}

func NewFromStorage(kind entity.Kind, store content.Repository, blobRepo blob.Repository, cacheControl string) *service {
	return New(mycontent_base.New(kind, store, blobRepo), cacheControl)
}

func New(uc mycontent.Usecase, cacheControl string) *service {
	return &service{
		uc:           uc,
		cacheControl: cacheControl,
	}
}

func (i *service) Usecase() mycontent.Usecase {
	return i.uc
}

// Register the kind routes under /<collection>, every route requires an admin
func (i *service) Register(router *httprouter.Router, auth Authorization) {
	base := "/" + i.uc.Kind().Collection

	router.GET(base, WithAuthorization(auth, i.List))
	router.POST(base, WithAuthorization(auth, i.Create))
	router.GET(base+"/:id", WithAuthorization(auth, i.Get))
	router.PUT(base+"/:id", WithAuthorization(auth, i.Update))
	router.DELETE(base+"/:id", WithAuthorization(auth, i.Delete))
	router.GET(base+"/:id/asset", WithAuthorization(auth, i.Asset))
}

func (i *service) List(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	result, err := i.uc.List(r.Context())
	if err != nil {
		handleUsecaseError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, &types.CommonResponse{
		Success: result,
	})
}

func (i *service) Get(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	result, err := i.uc.Get(r.Context(), p.ByName("id"))
	if err != nil {
		handleUsecaseError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, &types.CommonResponse{
		Success: result,
	})
}

// Delete needs ?confirm=true, the console asks the user before sending it
func (i *service) Delete(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	result, err := i.uc.Delete(r.Context(), mycontent.DeleteRequest{
		ID:        p.ByName("id"),
		Confirmed: confirmed,
	})
	if err != nil {
		handleUsecaseError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, &types.CommonResponse{
		Success: toMutationResult(result),
	})
}
