package mycontentapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/mycontent"
	types "github.com/desain-gratis/media-console/types/http"
	"github.com/desain-gratis/media-console/utility/imagecheck"
)

// form part holding the file
const assetPart = "asset"

// Create a record from a multipart form with the text fields and an asset part
func (i *service) Create(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	fields, asset, errUC := readForm(w, r)
	if errUC != nil {
		writeResponse(w, errUC.Errors[0].HTTPCode, &types.CommonResponse{Error: errUC})
		return
	}

	req := mycontent.CreateRequest{Fields: fields, Asset: asset}
	if !wantsProgress(r) {
		result, err := i.uc.Create(r.Context(), req)
		if err != nil {
			handleUsecaseError(w, err)
			return
		}
		writeResponse(w, http.StatusCreated, &types.CommonResponse{
			Success: toMutationResult(result),
		})
		return
	}

	stream := newProgressStream(w)
	req.OnProgress = stream.Progress
	result, err := i.uc.Create(r.Context(), req)
	finish(stream, result, err)
}

// Update the text fields of a record, and its asset when the form has one.
// A JSON body updates text fields only.
func (i *service) Update(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var fields map[string]string
	var asset *mycontent.Asset
	var errUC *types.CommonError

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		fields, errUC = readJSON(w, r)
	} else {
		fields, asset, errUC = readForm(w, r)
	}
	if errUC != nil {
		writeResponse(w, errUC.Errors[0].HTTPCode, &types.CommonResponse{Error: errUC})
		return
	}

	req := mycontent.UpdateRequest{ID: p.ByName("id"), Fields: fields, Asset: asset}
	if asset == nil || !wantsProgress(r) {
		result, err := i.uc.Update(r.Context(), req)
		if err != nil {
			handleUsecaseError(w, err)
			return
		}
		writeResponse(w, http.StatusOK, &types.CommonResponse{
			Success: toMutationResult(result),
		})
		return
	}

	stream := newProgressStream(w)
	req.OnProgress = stream.Progress
	result, err := i.uc.Update(r.Context(), req)
	finish(stream, result, err)
}

func finish(stream *progressStream, result *mycontent.Result, err error) {
	if err != nil {
		status, errUC := errorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Err(err).Msg("failed to serve request")
		}
		stream.Fail(status, errUC)
		return
	}
	stream.Success(toMutationResult(result))
}

// Asset streams the file linked to a record
func (i *service) Asset(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	payload, meta, err := i.uc.Download(r.Context(), p.ByName("id"))
	if err != nil {
		handleUsecaseError(w, err)
		return
	}
	defer payload.Close()

	if meta.ContentType != "" {
		w.Header().Set("Content-Type", meta.ContentType)
	}
	if meta.ContentSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.ContentSize, 10))
	}
	if i.cacheControl != "" {
		w.Header().Set("Cache-Control", i.cacheControl)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{
		"filename": path.Base(meta.Path),
	}))
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, payload)
	if err != nil {
		// headers are out, nothing left to report to the client
		log.Err(err).Msgf("error when transfering file %v at %v/%v", meta.Path, n, meta.ContentSize)
	}
}

// readForm reads the text fields and the optional asset part of a multipart body
func readForm(w http.ResponseWriter, r *http.Request) (map[string]string, *mycontent.Asset, *types.CommonError) {
	r.Body = http.MaxBytesReader(w, r.Body, maximumRequestLengthAttachment)

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, nil, types.NewError(http.StatusBadRequest, "BAD_REQUEST", "Failed to read as multipart/form-data")
	}

	fields := make(map[string]string)
	var asset *mycontent.Asset
	var fieldBytes int64

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, bodyError(err)
		}

		name := part.FormName()
		switch {
		case name == "":
		case name == assetPart:
			if asset != nil {
				return nil, nil, types.NewError(http.StatusBadRequest, "BAD_REQUEST", "Only one asset per request")
			}
			asset, err = readAsset(part)
			if err != nil {
				return nil, nil, assetError(err)
			}
		default:
			value, err := io.ReadAll(io.LimitReader(part, maximumRequestLength-fieldBytes+1))
			if err != nil {
				return nil, nil, bodyError(err)
			}
			fieldBytes += int64(len(value))
			if fieldBytes > maximumRequestLength {
				return nil, nil, types.NewError(http.StatusRequestEntityTooLarge, "TOO_LARGE", "Text fields are too large")
			}
			fields[name] = string(value)
		}
		part.Close()
	}

	return fields, asset, nil
}

func readJSON(w http.ResponseWriter, r *http.Request) (map[string]string, *types.CommonError) {
	r.Body = http.MaxBytesReader(w, r.Body, maximumRequestLength)

	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, types.NewError(http.StatusRequestEntityTooLarge, "TOO_LARGE", "Request body is too large")
		}
		return nil, types.NewError(http.StatusBadRequest, "BAD_REQUEST", "Failed to parse body as a JSON object of strings")
	}
	return fields, nil
}

// readAsset buffers the part and checks it is an image.
// An empty part without a file name is a form with no file chosen.
func readAsset(part *multipart.Part) (*mycontent.Asset, error) {
	payload, err := io.ReadAll(part)
	if err != nil {
		return nil, err
	}

	fileName := part.FileName()
	if len(payload) == 0 && fileName == "" {
		return nil, nil
	}

	info, err := imagecheck.Inspect(payload)
	if err != nil {
		return nil, &mycontent.ValidationError{Missing: []string{assetPart}, Reason: err.Error()}
	}

	if fileName == "" {
		fileName = assetPart + "." + info.Format
	}

	return &mycontent.Asset{
		Name:        fileName,
		ContentType: info.ContentType,
		Size:        int64(len(payload)),
		Payload:     bytes.NewReader(payload),
	}, nil
}

func assetError(err error) *types.CommonError {
	var verr *mycontent.ValidationError
	if errors.As(err, &verr) {
		_, errUC := errorResponse(verr)
		return errUC
	}
	return bodyError(err)
}

func bodyError(err error) *types.CommonError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return types.NewError(http.StatusRequestEntityTooLarge, "TOO_LARGE",
			fmt.Sprintf("Request body is larger than %d bytes", maxErr.Limit))
	}
	return types.NewError(http.StatusBadRequest, "BAD_REQUEST", "Malformed multipart body: "+strings.TrimSpace(err.Error()))
}
