package cwsdk

import "strconv"

// PlexPin is a freshly issued Plex linking PIN.
type PlexPin struct {
	ID        int    `json:"id"`
	Code      string `json:"code"`
	ExpiresIn int    `json:"expires_in"`
}

// PlexPinStatus is the claim state of a PIN being polled.
type PlexPinStatus struct {
	ID        int    `json:"id"`
	Claimed   bool   `json:"claimed"`
	Expired   bool   `json:"expired"`
	AuthToken string `json:"auth_token,omitempty"`
}

// PlexUser is one selectable Plex home user.
type PlexUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Title    string `json:"title"`
	Admin    bool   `json:"admin"`
}

// PlexLibrary is one library section on the linked server.
type PlexLibrary struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"` // movie, show, artist
}

// PlexServer is one reachable Plex media server.
type PlexServer struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Port      int    `json:"port"`
	Owned     bool   `json:"owned"`
	AccessTok string `json:"access_token,omitempty"`
}

// PlexInspect is the backend's summary of the linked account.
type PlexInspect struct {
	Linked   bool   `json:"linked"`
	Username string `json:"username,omitempty"`
	Server   string `json:"server,omitempty"`
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}
