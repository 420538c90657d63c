package cwsdk

import (
	"context"

	"resty.dev/v3"
)

const (
	plexPinNew    = "/api/plex/pin/new"
	plexPinCheck  = "/api/plex/pin/check"
	plexPickUsers = "/api/plex/pickusers"
	plexLibraries = "/api/plex/libraries"
	plexPMS       = "/api/plex/pms"
	plexInspect   = "/api/plex/inspect"
)

// PlexAPI covers the Plex account linking and discovery endpoints.
type PlexAPI struct {
	client *resty.Client
}

func newPlexAPI(client *resty.Client) *PlexAPI {
	return &PlexAPI{client: client}
}

// NewPin requests a new Plex linking PIN from the backend.
func (p *PlexAPI) NewPin(ctx context.Context) (*PlexPin, error) {
	var resp PlexPin
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Post(plexPinNew)

	if err := handleAPIError(res, err, "plex pin new"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckPin polls the claim state of a previously requested PIN.
func (p *PlexAPI) CheckPin(ctx context.Context, id int) (*PlexPinStatus, error) {
	var resp PlexPinStatus
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("id", itoa(id)).
		SetResult(&resp).
		SetError(&apiErr).
		Get(plexPinCheck)

	if err := handleAPIError(res, err, "plex pin check"); err != nil {
		return nil, err
	}
	if resp.Expired {
		return nil, ErrPinExpired
	}
	return &resp, nil
}

// PickUsers lists the Plex home users selectable for sync.
func (p *PlexAPI) PickUsers(ctx context.Context) ([]PlexUser, error) {
	var resp []PlexUser
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(plexPickUsers)

	if err := handleAPIError(res, err, "plex pickusers"); err != nil {
		return nil, err
	}
	return resp, nil
}

// Libraries lists the libraries of the linked Plex server.
func (p *PlexAPI) Libraries(ctx context.Context) ([]PlexLibrary, error) {
	var resp []PlexLibrary
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(plexLibraries)

	if err := handleAPIError(res, err, "plex libraries"); err != nil {
		return nil, err
	}
	return resp, nil
}

// Servers lists the reachable Plex media servers for the linked account.
func (p *PlexAPI) Servers(ctx context.Context) ([]PlexServer, error) {
	var resp []PlexServer
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(plexPMS)

	if err := handleAPIError(res, err, "plex pms"); err != nil {
		return nil, err
	}
	return resp, nil
}

// Inspect returns the backend's view of the linked Plex account.
func (p *PlexAPI) Inspect(ctx context.Context) (*PlexInspect, error) {
	var resp PlexInspect
	var apiErr APIError

	res, err := p.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(plexInspect)

	if err := handleAPIError(res, err, "plex inspect"); err != nil {
		return nil, err
	}
	return &resp, nil
}
