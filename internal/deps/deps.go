package deps

import (
	"fmt"
	"strings"

	"scriptbook/internal/extract"
)

// Requirement names an external converter and the binary it runs.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is a requirement with the outcome of looking it up.
type Status struct {
	Requirement
	Available bool
	Path      string // resolved binary when available
	Detail    string
}

// CheckBinaries looks every requirement up through extract.LookPath, the
// lookup a build uses when it picks a converter.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		results[i] = lookup(req)
	}
	return results
}

func lookup(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = fmt.Sprintf("%s is not a known converter", req.Name)
		return status
	}
	path, err := extract.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("%q not on PATH", req.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}
