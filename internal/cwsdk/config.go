package cwsdk

import (
	"context"

	"github.com/goccy/go-json"
	"resty.dev/v3"
)

const configPath = "/api/config"

// ConfigAPI reads and writes the full application config blob.
type ConfigAPI struct {
	client *resty.Client
}

func newConfigAPI(client *resty.Client) *ConfigAPI {
	return &ConfigAPI{client: client}
}

// AppConfig is the backend's application config blob. The dashboard edits
// four fields; every other top-level section rides through Extra byte for
// byte, so a Get, edit, Set cycle never drops backend state it does not
// understand.
type AppConfig struct {
	PlexToken  string
	PlexUser   string
	DropGuard  bool
	MassDelete bool
	Extra      map[string]json.RawMessage
}

func (c *AppConfig) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = AppConfig{}
	strFields := map[string]*string{
		"plex_token": &c.PlexToken,
		"plex_user":  &c.PlexUser,
	}
	boolFields := map[string]*bool{
		"drop_guard":  &c.DropGuard,
		"mass_delete": &c.MassDelete,
	}
	for key, dst := range strFields {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return err
			}
			delete(raw, key)
		}
	}
	for key, dst := range boolFields {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return err
			}
			delete(raw, key)
		}
	}
	if len(raw) > 0 {
		c.Extra = raw
	}
	return nil
}

func (c AppConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.Extra)+4)
	for k, v := range c.Extra {
		out[k] = v
	}

	put := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out[key] = b
		return nil
	}
	if c.PlexToken != "" {
		if err := put("plex_token", c.PlexToken); err != nil {
			return nil, err
		}
	}
	if c.PlexUser != "" {
		if err := put("plex_user", c.PlexUser); err != nil {
			return nil, err
		}
	}
	// the toggles are written unconditionally so switching one off sticks
	if err := put("drop_guard", c.DropGuard); err != nil {
		return nil, err
	}
	if err := put("mass_delete", c.MassDelete); err != nil {
		return nil, err
	}

	return json.Marshal(out)
}

// Normalize enforces that drop guard and mass delete are never both set.
// Drop guard wins: it refuses large removals, which mass delete would
// immediately contradict.
func (c *AppConfig) Normalize() {
	if c.DropGuard && c.MassDelete {
		c.MassDelete = false
	}
}

// Get fetches the application config.
func (c *ConfigAPI) Get(ctx context.Context) (*AppConfig, error) {
	var resp AppConfig
	var apiErr APIError

	res, err := c.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(configPath)

	if err := handleAPIError(res, err, "config get"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Set writes the application config.
func (c *ConfigAPI) Set(ctx context.Context, cfg *AppConfig) error {
	var apiErr APIError

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(cfg).
		SetError(&apiErr).
		Post(configPath)

	return handleAPIError(res, err, "config set")
}
