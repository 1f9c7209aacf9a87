package extract

// Converter describes an external legacy-document-to-text tool.
type Converter struct {
	Name   string
	Binary string
	args   func(path string) []string
}

// Args returns the command-line arguments for converting path.
func (c Converter) Args(path string) []string {
	if c.args == nil {
		return []string{path}
	}
	return c.args(path)
}

var builtinConverters = map[string]Converter{
	"textutil": {
		Name:   "textutil",
		Binary: "textutil",
		args: func(path string) []string {
			return []string{"-convert", "txt", "-stdout", path}
		},
	},
	"antiword": {
		Name:   "antiword",
		Binary: "antiword",
		args: func(path string) []string {
			return []string{path}
		},
	},
}

// LookupConverter returns the built-in converter registered under name.
func LookupConverter(name string) (Converter, bool) {
	c, ok := builtinConverters[name]
	return c, ok
}
