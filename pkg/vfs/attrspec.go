package vfs

import (
	"strings"

	"github.com/objectfs/memvfs/pkg/vfserr"
)

// attrSpec is a parsed "view:name" attribute reference. name is "*" for a
// wildcard read, or a comma-separated list for a multi-name read.
type attrSpec struct {
	view  string
	names []string
	wild  bool
}

const defaultView = "basic"

// parseAttrSpec parses a single-attribute spec: "view:name" or bare "name"
// (defaulting to the basic view). A comma in a single-attribute call, an
// empty view or name, or more than one ':' all fail InvalidFormat.
func parseAttrSpec(spec string) (attrSpec, error) {
	view, name, err := splitViewName(spec)
	if err != nil {
		return attrSpec{}, err
	}
	if strings.Contains(name, ",") {
		return attrSpec{}, vfserr.New(vfserr.InvalidFormat, "single-attribute spec must not contain a comma").
			WithComponent("attrs").WithAttribute(spec)
	}
	return attrSpec{view: view, names: []string{name}}, nil
}

// parseAttrListSpec parses a multi-name read spec: "view:a,b,c" or the
// standalone wildcard "view:*". Mixing "*" with other names fails
// InvalidAttributes (the multi-name read path's distinct error kind).
func parseAttrListSpec(spec string) (attrSpec, error) {
	view, rest, err := splitViewName(spec)
	if err != nil {
		return attrSpec{}, err
	}

	if rest == "*" {
		return attrSpec{view: view, wild: true}, nil
	}

	parts := strings.Split(rest, ",")
	for _, p := range parts {
		if p == "" {
			return attrSpec{}, vfserr.New(vfserr.InvalidFormat, "empty attribute name in list").
				WithComponent("attrs").WithAttribute(spec)
		}
		if p == "*" {
			return attrSpec{}, vfserr.New(vfserr.InvalidAttributes, "wildcard must stand alone").
				WithComponent("attrs").WithAttribute(spec)
		}
	}
	return attrSpec{view: view, names: parts}, nil
}

func splitViewName(spec string) (view, name string, err error) {
	idx := strings.Index(spec, ":")
	if idx < 0 {
		if spec == "" {
			return "", "", vfserr.New(vfserr.InvalidFormat, "empty attribute spec").WithComponent("attrs")
		}
		return defaultView, spec, nil
	}
	view = spec[:idx]
	name = spec[idx+1:]
	if strings.Contains(name, ":") {
		return "", "", vfserr.New(vfserr.InvalidFormat, "attribute spec must contain exactly one ':'").
			WithComponent("attrs").WithAttribute(spec)
	}
	if view == "" {
		return "", "", vfserr.New(vfserr.InvalidFormat, "empty view in attribute spec").
			WithComponent("attrs").WithAttribute(spec)
	}
	if name == "" {
		return "", "", vfserr.New(vfserr.InvalidFormat, "empty attribute name in spec").
			WithComponent("attrs").WithAttribute(spec)
	}
	return view, name, nil
}
