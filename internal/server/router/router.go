package router

import (
	"fmt"
	"net/http"
	"path"
	"sync"

	"github.com/gin-gonic/gin"
)

// GroupRouter is a set of routes under one path prefix that share
// middlewares. Handlers declare their groups in init and the server mounts
// them all with RegisterAll.
type GroupRouter struct {
	Path        string
	Routes      []*Route
	Middlewares []gin.HandlerFunc
}

var (
	mu                sync.Mutex
	registeredRouters []*GroupRouter
)

// NewGroupRouter creates and registers a group.
func NewGroupRouter(prefix string) *GroupRouter {
	g := &GroupRouter{Path: prefix}
	mu.Lock()
	registeredRouters = append(registeredRouters, g)
	mu.Unlock()
	return g
}

func (g *GroupRouter) Use(middlewares ...gin.HandlerFunc) *GroupRouter {
	g.Middlewares = append(g.Middlewares, middlewares...)
	return g
}

func (g *GroupRouter) AddRoute(route *Route) *GroupRouter {
	g.Routes = append(g.Routes, route)
	return g
}

// Route is one endpoint. Its middlewares run after the group's.
type Route struct {
	Path        string
	Method      string
	Handlers    []gin.HandlerFunc
	Middlewares []gin.HandlerFunc
}

func NewRoute(p string, method string) *Route {
	return &Route{Path: p, Method: method}
}

func (r *Route) Handle(handlers ...gin.HandlerFunc) *Route {
	r.Handlers = append(r.Handlers, handlers...)
	return r
}

func (r *Route) Use(middlewares ...gin.HandlerFunc) *Route {
	r.Middlewares = append(r.Middlewares, middlewares...)
	return r
}

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

func (r *Route) Validate() error {
	if len(r.Handlers) == 0 {
		return fmt.Errorf("route %s %s has no handler", r.Method, r.Path)
	}
	if !knownMethods[r.Method] {
		return fmt.Errorf("route %s has unsupported method %q", r.Path, r.Method)
	}
	return nil
}

// Endpoints lists "METHOD /full/path" for every registered route.
func Endpoints() []string {
	mu.Lock()
	defer mu.Unlock()
	var out []string
	for _, g := range registeredRouters {
		for _, r := range g.Routes {
			out = append(out, r.Method+" "+fullPath(g.Path, r.Path))
		}
	}
	return out
}

func fullPath(prefix, p string) string {
	joined := path.Join("/", prefix, p)
	if p != "" && p[len(p)-1] == '/' && joined != "/" {
		joined += "/"
	}
	return joined
}

// RegisterAll mounts every registered group on engine. The registry is kept,
// so several engines can be built from it.
func RegisterAll(engine *gin.Engine) error {
	mu.Lock()
	groups := append([]*GroupRouter(nil), registeredRouters...)
	mu.Unlock()

	for _, g := range groups {
		for _, r := range g.Routes {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("group %q: %w", g.Path, err)
			}
		}
		group := engine.Group(g.Path, g.Middlewares...)
		for _, r := range g.Routes {
			handlers := make([]gin.HandlerFunc, 0, len(r.Middlewares)+len(r.Handlers))
			handlers = append(handlers, r.Middlewares...)
			handlers = append(handlers, r.Handlers...)
			group.Handle(r.Method, r.Path, handlers...)
		}
	}
	return nil
}
