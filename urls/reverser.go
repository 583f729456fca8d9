// Package urls rebuilds LMS paths from named routes, the way the LMS itself
// reverses its URL configuration. Routes are registered on a gorilla/mux
// router that is never served; only its URL builder is used.
package urls

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// Route names used by the tracking helpers.
const (
	LearnerProfile      = "learner_profile"
	CertificateHTMLView = "certificates:html_view"
)

// CourseIDPattern accepts both course-v1:Org+Course+Run keys and legacy
// Org/Course/Run ids.
const CourseIDPattern = `[^/+]+(?:/|\+)[^/+]+(?:/|\+)[^/?]+`

// ErrNoReverseMatch is returned when a route is unknown or its parameters do
// not satisfy the route's variable patterns.
var ErrNoReverseMatch = errors.New("no reverse match")

// DefaultRoutes mirrors the LMS url patterns the helpers depend on.
var DefaultRoutes = map[string]string{
	LearnerProfile:      `/u/{username:[\pL\pN_.@+-]+}`,
	CertificateHTMLView: `/certificates/user/{user_id:[^/]*}/course/{course_id:` + CourseIDPattern + `}`,
}

// Reverser builds paths for named routes.
type Reverser struct {
	router *mux.Router
	names  []string
}

// NewReverser registers every route in routes. A malformed template is an error.
func NewReverser(routes map[string]string) (*Reverser, error) {
	r := mux.NewRouter()
	names := make([]string, 0, len(routes))
	for name, tpl := range routes {
		route := r.NewRoute().Name(name).Path(tpl)
		if err := route.GetError(); err != nil {
			return nil, fmt.Errorf("invalid route %q: %w", name, err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return &Reverser{router: r, names: names}, nil
}

// Reverse returns the percent-encoded path for the named route with kwargs
// substituted. Reserved path characters such as ':', '+' and '@' are kept.
func (rv *Reverser) Reverse(name string, kwargs map[string]string) (string, error) {
	route := rv.router.Get(name)
	if route == nil {
		return "", fmt.Errorf("reverse for '%s': route not registered: %w", name, ErrNoReverseMatch)
	}

	pairs := make([]string, 0, len(kwargs)*2)
	for k, v := range kwargs {
		pairs = append(pairs, k, v)
	}

	u, err := route.URLPath(pairs...)
	if err != nil {
		return "", fmt.Errorf("reverse for '%s' with arguments %v: %v: %w", name, kwargs, err, ErrNoReverseMatch)
	}
	return u.EscapedPath(), nil
}

// Names lists the registered route names in sorted order.
func (rv *Reverser) Names() []string {
	return append([]string(nil), rv.names...)
}

// LoadRoutes merges the YAML route file at path over DefaultRoutes.
// An empty path returns the defaults. The file maps route names to templates:
//
//	learner_profile: /u/{username}
//	certificates:html_view: /certificates/{user_id}/{course_id}
func LoadRoutes(path string) (map[string]string, error) {
	routes := make(map[string]string, len(DefaultRoutes))
	for k, v := range DefaultRoutes {
		routes[k] = v
	}
	if path == "" {
		return routes, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}

	overrides := map[string]string{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse routes file %s: %w", path, err)
	}
	for k, v := range overrides {
		routes[k] = v
	}
	return routes, nil
}
