package mycontentapiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	mycontentapi "github.com/desain-gratis/media-console/delivery/mycontent-api"
	"github.com/desain-gratis/media-console/types/entity"
	types "github.com/desain-gratis/media-console/types/http"
)

// client of one record kind, endpoint is the collection URL
// eg. http://localhost:9090/banners
type client struct {
	endpoint string
	httpc    *http.Client
}

func New(httpc *http.Client, endpoint string) *client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &client{
		httpc:    httpc,
		endpoint: strings.TrimSuffix(endpoint, "/"),
	}
}

func (c *client) List(ctx context.Context, authToken string) (result []*entity.Record, errUC *types.CommonError) {
	req, errUC := c.newRequest(ctx, http.MethodGet, c.endpoint, authToken, nil)
	if errUC != nil {
		return nil, errUC
	}
	return do[[]*entity.Record](c.httpc, req)
}

func (c *client) Get(ctx context.Context, authToken string, ID string) (result *entity.Record, errUC *types.CommonError) {
	req, errUC := c.newRequest(ctx, http.MethodGet, c.endpoint+"/"+url.PathEscape(ID), authToken, nil)
	if errUC != nil {
		return nil, errUC
	}
	return do[*entity.Record](c.httpc, req)
}

// Delete the record and its asset. The server refuses when confirmed is false.
func (c *client) Delete(ctx context.Context, authToken string, ID string, confirmed bool) (result *mycontentapi.MutationResult, errUC *types.CommonError) {
	target := c.endpoint + "/" + url.PathEscape(ID)
	if confirmed {
		target += "?confirm=true"
	}

	req, errUC := c.newRequest(ctx, http.MethodDelete, target, authToken, nil)
	if errUC != nil {
		return nil, errUC
	}
	return do[*mycontentapi.MutationResult](c.httpc, req)
}

func (c *client) newRequest(ctx context.Context, method, target, authToken string, body io.Reader) (*http.Request, *types.CommonError) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, clientError("new request " + err.Error())
	}
	if authToken != "" {
		req.Header.Add("Authorization", "Bearer "+authToken)
	}
	return req, nil
}

func do[T any](httpc *http.Client, req *http.Request) (result T, errUC *types.CommonError) {
	resp, err := httpc.Do(req)
	if err != nil {
		return result, clientError("do " + err.Error())
	}
	defer resp.Body.Close()

	return decode[T](resp)
}

func decode[T any](resp *http.Response) (result T, errUC *types.CommonError) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, clientError("read body " + err.Error())
	}

	var cr types.CommonResponseTyped[T]
	err = json.Unmarshal(body, &cr)
	if err != nil {
		return result, clientError("unmarshal " + err.Error() + " " + string(body))
	}

	if cr.Error != nil {
		return result, cr.Error
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return result, &types.CommonError{
			Errors: []types.Error{
				{HTTPCode: resp.StatusCode, Code: "HTTP_ERROR", Message: resp.Status},
			},
		}
	}

	return cr.Success, nil
}

func clientError(msg string) *types.CommonError {
	return &types.CommonError{
		Errors: []types.Error{
			{Code: "CLIENT_ERROR", Message: msg},
		},
	}
}
