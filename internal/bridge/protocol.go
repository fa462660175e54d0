package bridge

import "github.com/arc-language/pkgdesk/pkg/core"

// Inbound commands
const (
	cmdGetInstalled = "getInstalled"
	cmdGetUpdates   = "getUpdates"
	cmdGetExplore   = "getExplorePackages"
	cmdSearch       = "search"
	cmdInstall      = "install"
	cmdUninstall    = "uninstall"
	cmdUpdate       = "update"
	cmdCancel       = "cancel"
	cmdLog          = "log"
)

// Outbound responses
const (
	respInstalled = "installedPackages"
	respUpdates   = "updatePackages"
	respExplore   = "explorePackages"
	respSearch    = "searchResults"
	respStatus    = "operationStatus"
	respProgress  = "operationProgress"
	respCompleted = "operationCompleted"
	respRefresh   = "refresh"
	respError     = "error"
)

// Request is a message sent by the UI
type Request struct {
	Command     string      `json:"command"`
	Term        string      `json:"term,omitempty"`
	Scope       string      `json:"scope,omitempty"`
	Package     *PackageRef `json:"package,omitempty"`
	OperationID string      `json:"operationId,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// PackageRef identifies the package an action applies to, as listed by the UI
type PackageRef struct {
	Name    string `json:"name"`
	RawName string `json:"raw_name,omitempty"`
	Source  string `json:"source"`
}

// ID returns the identifier passed to the backend
func (p *PackageRef) ID() string {
	if p.RawName != "" {
		return p.RawName
	}
	return p.Name
}

type listResponse struct {
	Response string         `json:"response"`
	Data     []core.Package `json:"data"`
}

type statusResponse struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}

type progressResponse struct {
	Response    string  `json:"response"`
	ID          string  `json:"id"`
	OperationID string  `json:"operationId"`
	Name        string  `json:"name"`
	Command     string  `json:"command"`
	Status      string  `json:"status"`
	Progress    float64 `json:"progress"`
	Line        string  `json:"line,omitempty"`
}

type completedResponse struct {
	Response    string `json:"response"`
	ID          string `json:"id"`
	OperationID string `json:"operationId,omitempty"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ExitCode    int    `json:"exitCode"`
}

type simpleResponse struct {
	Response string `json:"response"`
	Message  string `json:"message,omitempty"`
}

func list(response string, packages []core.Package) listResponse {
	if packages == nil {
		packages = []core.Package{}
	}
	return listResponse{Response: response, Data: packages}
}

func status(s string) statusResponse {
	return statusResponse{Response: respStatus, Status: s}
}

func failure(err error) simpleResponse {
	return simpleResponse{Response: respError, Message: err.Error()}
}
