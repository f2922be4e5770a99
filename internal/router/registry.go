package router

import "github.com/gin-gonic/gin"

// APIPrefix is the base path every module registers under.
const APIPrefix = "/api"

// Registry collects feature modules and the middleware shared by all of them.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	api := engine.Group(APIPrefix)
	return &Registry{Engine: engine, API: api}
}

// Use adds middleware applied to every module route. Must be called before RegisterAll.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
