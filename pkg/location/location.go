package location

import (
	"regexp"
	"strings"
)

// Dialect identifies the URL grammar a location was parsed with.
type Dialect string

const (
	// DialectNone is reported for empty input.
	DialectNone Dialect = ""
	// DialectVendor is the nested-path scheme with optional "t_" templates.
	DialectVendor Dialect = "vendor"
	// DialectCDN is the REST-style res.cloudinary.com scheme.
	DialectCDN Dialect = "cdn"
	// DialectGeneric is the fallback for any other URL.
	DialectGeneric Dialect = "generic"
)

const (
	vendorMarker   = "chanel.com/images"
	vendorSplit    = "/images/"
	templatePrefix = "t_"
	templateSuffix = "///"
	cdnMarker      = "res.cloudinary.com"
)

// cdnPrefix matches scheme, host, cloud name, resource type and delivery type.
var cdnPrefix = regexp.MustCompile(`https://res\.cloudinary\.com/[^/]+/[^/]+/[^/]+/`)

// Location is an input URL split around its asset identifier.
//
// BaseURL ends in "/" whenever it is non-empty and PublicID never starts
// with "/", so BaseURL+PublicID always rebuilds a loadable URL.
type Location struct {
	BaseURL  string  `json:"base_url"`
	PublicID string  `json:"public_id"`
	Dialect  Dialect `json:"dialect"`
}

// IsZero reports whether either half of the location is missing.
// Compilation yields no URL for such locations.
func (l Location) IsZero() bool {
	return l.BaseURL == "" || l.PublicID == ""
}

// String returns BaseURL+PublicID, the untransformed URL.
func (l Location) String() string {
	return l.BaseURL + l.PublicID
}

// Classify returns the dialect Parse would pick for url, based only on the
// marker substrings. A URL classified as vendor or CDN may still be parsed
// as generic when it does not fit the dialect's grammar.
func Classify(url string) Dialect {
	switch {
	case url == "":
		return DialectNone
	case strings.Contains(url, vendorMarker):
		return DialectVendor
	case strings.Contains(url, cdnMarker):
		return DialectCDN
	default:
		return DialectGeneric
	}
}

// Parse splits url into a Location. It never fails; an empty url yields
// the zero Location.
func Parse(url string) Location {
	switch Classify(url) {
	case DialectNone:
		return Location{}
	case DialectVendor:
		if loc, ok := parseVendor(url); ok {
			return loc
		}
	case DialectCDN:
		if loc, ok := parseCDN(url); ok {
			return loc
		}
	}
	return parseGeneric(url)
}

// parseVendor handles ".../images/[/]t_<name>///<public id>" URLs.
func parseVendor(url string) (Location, bool) {
	head, rest, found := strings.Cut(url, vendorSplit)
	if !found {
		return Location{}, false
	}
	loc := Location{BaseURL: head + vendorSplit, PublicID: rest, Dialect: DialectVendor}

	tpl := findTemplate(rest)
	if tpl == "" {
		return loc, true
	}

	prefix := tpl + templateSuffix
	if strings.HasPrefix(rest, "/") {
		prefix = "/" + prefix
	}
	loc.BaseURL += prefix
	if len(prefix) <= len(rest) {
		loc.PublicID = rest[len(prefix):]
	} else {
		loc.PublicID = ""
	}
	return loc, true
}

// findTemplate returns the first non-empty path segment starting with "t_".
func findTemplate(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && strings.HasPrefix(seg, templatePrefix) {
			return seg
		}
	}
	return ""
}

func parseCDN(url string) (Location, bool) {
	idx := cdnPrefix.FindStringIndex(url)
	if idx == nil {
		return Location{}, false
	}
	return Location{
		BaseURL:  url[:idx[1]],
		PublicID: url[idx[1]:],
		Dialect:  DialectCDN,
	}, true
}

func parseGeneric(url string) Location {
	i := strings.LastIndex(url, "/")
	if i < 0 {
		return Location{PublicID: url, Dialect: DialectGeneric}
	}
	return Location{
		BaseURL:  url[:i+1],
		PublicID: url[i+1:],
		Dialect:  DialectGeneric,
	}
}
