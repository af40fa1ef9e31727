package mycontentapiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	mycontentapi "github.com/desain-gratis/media-console/delivery/mycontent-api"
	types "github.com/desain-gratis/media-console/types/http"
)

const ndjson = "application/x-ndjson"

// longest progress line accepted, the terminal line carries the record
const maxLineSize = 1 << 20

// Asset to upload, Payload is streamed as the request body is written
type Asset struct {
	Name    string
	Payload io.Reader
}

// ProgressFunc receives every non-terminal progress line
type ProgressFunc func(line mycontentapi.ProgressLine)

// Create a record. Progress is requested from the server when onProgress is set.
func (c *client) Create(
	ctx context.Context,
	authToken string,
	fields map[string]string,
	asset *Asset,
	onProgress ProgressFunc,
) (result *mycontentapi.MutationResult, errUC *types.CommonError) {
	return c.send(ctx, http.MethodPost, c.endpoint, authToken, fields, asset, onProgress)
}

// Update a record, asset is optional
func (c *client) Update(
	ctx context.Context,
	authToken string,
	ID string,
	fields map[string]string,
	asset *Asset,
	onProgress ProgressFunc,
) (result *mycontentapi.MutationResult, errUC *types.CommonError) {
	return c.send(ctx, http.MethodPut, c.endpoint+"/"+url.PathEscape(ID), authToken, fields, asset, onProgress)
}

func (c *client) send(
	ctx context.Context,
	method, target, authToken string,
	fields map[string]string,
	asset *Asset,
	onProgress ProgressFunc,
) (*mycontentapi.MutationResult, *types.CommonError) {
	reqbody, writer := io.Pipe()
	mwriter := multipart.NewWriter(writer)
	defer reqbody.Close()

	req, errUC := c.newRequest(ctx, method, target, authToken, reqbody)
	if errUC != nil {
		return nil, errUC
	}
	req.Header.Add("Content-Type", mwriter.FormDataContentType())
	if onProgress != nil {
		req.Header.Add("Accept", ndjson)
	}

	go func() {
		writer.CloseWithError(writeForm(mwriter, fields, asset))
	}()

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, clientError("do " + err.Error())
	}
	defer resp.Body.Close()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), ndjson) {
		return decode[*mycontentapi.MutationResult](resp)
	}

	return readProgress(resp.Body, onProgress)
}

func writeForm(mwriter *multipart.Writer, fields map[string]string, asset *Asset) error {
	for k, v := range fields {
		if err := mwriter.WriteField(k, v); err != nil {
			return err
		}
	}

	if asset != nil {
		w, err := mwriter.CreateFormFile("asset", asset.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, asset.Payload); err != nil {
			return err
		}
	}

	return mwriter.Close()
}

// readProgress forwards progress lines until the terminal one
func readProgress(body io.Reader, onProgress ProgressFunc) (*mycontentapi.MutationResult, *types.CommonError) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		var line mycontentapi.ProgressLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return nil, clientError("unmarshal progress " + err.Error())
		}

		switch {
		case line.Error != nil:
			return nil, line.Error
		case line.Result != nil:
			return line.Result, nil
		case onProgress != nil:
			onProgress(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, clientError("read progress " + err.Error())
	}

	return nil, clientError("stream ended without a result")
}
