package cwsdk

import (
	"fmt"
	"runtime"

	"github.com/crosswatch/dashd/internal/version"
)

const (
	HeaderUserAgent   = "User-Agent"
	HeaderDashVersion = "X-CrossWatch-Dash-Version"
)

// UserAgent identifies the dashboard daemon to the backend.
var UserAgent = fmt.Sprintf("CrossWatchDash/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)
