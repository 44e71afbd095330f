package http

import (
	"fmt"
	"strings"
)

// Method is a bitmask of request methods a receiver accepts.
type Method uint

const (
	MethodGet Method = 1 << iota
	MethodPost
	MethodHead
	MethodPut
	MethodDelete
	MethodTrace
	MethodOptions

	MethodAll = MethodGet | MethodPost | MethodHead | MethodPut |
		MethodDelete | MethodTrace | MethodOptions
)

var methodNames = []struct {
	m    Method
	name string
}{
	{MethodGet, "GET"},
	{MethodPost, "POST"},
	{MethodHead, "HEAD"},
	{MethodPut, "PUT"},
	{MethodDelete, "DELETE"},
	{MethodTrace, "TRACE"},
	{MethodOptions, "OPTIONS"},
}

// ParseMethod maps a request method token onto its bit. Tokens are case
// sensitive.
func ParseMethod(name string) (Method, bool) {
	for _, v := range methodNames {
		if v.name == name {
			return v.m, true
		}
	}
	return 0, false
}

// ParseMethods builds a mask from method names, as found in config files.
func ParseMethods(names []string) (Method, error) {
	var mask Method
	for _, name := range names {
		m, ok := ParseMethod(strings.ToUpper(strings.TrimSpace(name)))
		if !ok {
			return 0, fmt.Errorf("http: unknown method [%s]", name)
		}
		mask |= m
	}
	return mask, nil
}

func (m Method) Allows(name string) bool {
	bit, ok := ParseMethod(name)
	return ok && m&bit != 0
}

func (m Method) String() string {
	var names []string
	for _, v := range methodNames {
		if m&v.m != 0 {
			names = append(names, v.name)
		}
	}
	return strings.Join(names, "|")
}
