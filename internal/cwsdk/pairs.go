package cwsdk

import (
	"context"
	"net/http"

	"resty.dev/v3"
)

const (
	pairsPath        = "/api/pairs"
	pairsByIDPath    = "/api/pairs/{id}"
	pairsReorderPath = "/api/pairs/reorder"
)

// PairsAPI covers sync pair CRUD and ordering.
type PairsAPI struct {
	client *resty.Client
}

func newPairsAPI(client *resty.Client) *PairsAPI {
	return &PairsAPI{client: client}
}

// List fetches all configured pairs in display order.
func (p *PairsAPI) List(ctx context.Context) ([]Pair, error) {
	var resp []Pair
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(pairsPath)

	if err := handleAPIError(res, err, "pairs list"); err != nil {
		return nil, err
	}
	return resp, nil
}

// Create adds a new pair and returns it with its server-assigned id.
func (p *PairsAPI) Create(ctx context.Context, pair *Pair) (*Pair, error) {
	var resp Pair
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetBody(pair).
		SetResult(&resp).
		SetError(&apiErr).
		Post(pairsPath)

	if err := handleAPIError(res, err, "pairs create"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update replaces an existing pair.
func (p *PairsAPI) Update(ctx context.Context, pair *Pair) error {
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetPathParam("id", pair.ID).
		SetBody(pair).
		SetError(&apiErr).
		Put(pairsByIDPath)

	if res != nil && res.StatusCode() == http.StatusNotFound {
		return ErrPairNotFound
	}
	return handleAPIError(res, err, "pairs update")
}

// Delete removes a pair.
func (p *PairsAPI) Delete(ctx context.Context, id string) error {
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetError(&apiErr).
		Delete(pairsByIDPath)

	if res != nil && res.StatusCode() == http.StatusNotFound {
		return ErrPairNotFound
	}
	return handleAPIError(res, err, "pairs delete")
}

// Reorder persists a new pair display order.
func (p *PairsAPI) Reorder(ctx context.Context, order []string) error {
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetBody(&ReorderRequest{Order: order}).
		SetError(&apiErr).
		Post(pairsReorderPath)

	return handleAPIError(res, err, "pairs reorder")
}
