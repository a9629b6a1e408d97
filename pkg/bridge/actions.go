package bridge

import (
	"fmt"
	"net/url"

	"github.com/bft-labs/appshell/internal/domain"
)

// Commands sent by the UI to the host.
const (
	CmdQuit           = "quit"
	CmdSetStorageKey  = "set-storage-key"
	CmdUpdateLanguage = "update-language"
	CmdReportError    = "report-error"
	CmdShowAppInfo    = "show-app-info"
	CmdOpenURL        = "open-url"
	CmdRequestRestart = "request-restart"
	CmdSaveProject    = "save-project"
)

// Calls made by the UI to the host.
const (
	CallGetStorageKey = "get-storage-key"
	CallLoadProject   = "load-project"
	CallListProjects  = "list-projects"
)

// Requests sent by the host to the UI.
const (
	ActionTranslateContextID = "translateContextId"
	ActionReloadSettings     = "reloadSettings"
)

// RestartOptions is the argument of CmdRequestRestart.
type RestartOptions struct {
	// Once marks a change that only takes effect after one restart.
	Once bool `json:"once,omitempty"`
}

// ValidateURL checks the argument of CmdOpenURL: an absolute http or https
// URL with a host.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidURL, raw)
	}
	return u, nil
}
