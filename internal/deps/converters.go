package deps

import (
	"fmt"

	"scriptbook/internal/extract"
)

var converterDescriptions = map[string]string{
	"textutil": "Converts legacy .doc scripts (macOS)",
	"antiword": "Converts legacy .doc scripts",
}

// ConverterRequirements lists the configured converters in preference order.
// Each one is optional on its own; Ready decides whether the set is usable.
func ConverterRequirements(names []string) []Requirement {
	reqs := make([]Requirement, 0, len(names))
	for _, name := range names {
		req := Requirement{Name: name, Description: converterDescriptions[name], Optional: true}
		if conv, ok := extract.LookupConverter(name); ok {
			req.Command = conv.Binary
		}
		reqs = append(reqs, req)
	}
	return reqs
}

// Ready reports whether at least one converter is available and names the
// one a build would pick.
func Ready(statuses []Status) (string, bool) {
	for _, status := range statuses {
		if status.Available {
			return status.Name, true
		}
	}
	return "", false
}

// Summary renders a one-line description of converter availability.
func Summary(statuses []Status) string {
	if name, ok := Ready(statuses); ok {
		return fmt.Sprintf("using %s", name)
	}
	if len(statuses) == 0 {
		return "no converters configured"
	}
	return "no converter found on PATH"
}
