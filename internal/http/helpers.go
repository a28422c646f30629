package http

import (
	"html/template"
	"strconv"

	"mutuo/internal/core"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"euro": func(m core.Money) string { return m.Format() },
		"amount": func(m core.Money) string {
			return m.String()
		},
		// pageURL builds the link of a table page for the same inputs.
		"pageURL": func(path string, in Inputs, page int) template.URL {
			v := in.Values()
			v.Set("page", strconv.Itoa(page))
			return template.URL(path + "?" + v.Encode())
		},
		"exportURL": func(in Inputs, format string) template.URL {
			v := in.Values()
			v.Set("format", format)
			return template.URL("/export?" + v.Encode())
		},
	}
}
