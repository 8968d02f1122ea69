package server

import "github.com/gin-gonic/gin"

type Route struct {
	Method     string
	Path       string
	Handler    gin.HandlerFunc
	Middleware []gin.HandlerFunc
}

type Controller interface {
	Routes() []Route
}

type RouterGroup struct {
	Path        string
	Middleware  []gin.HandlerFunc
	Controllers []Controller
}

func (s *Server) RegisterGroups(groups ...RouterGroup) {
	for _, group := range groups {
		routerGroup := s.engine.Group(group.Path)

		if len(group.Middleware) > 0 {
			routerGroup.Use(group.Middleware...)
		}

		for _, controller := range group.Controllers {
			for _, route := range controller.Routes() {
				handlers := route.Middleware
				handlers = append(handlers, route.Handler)

				switch route.Method {
				case "GET":
					routerGroup.GET(route.Path, handlers...)
				case "POST":
					routerGroup.POST(route.Path, handlers...)
				case "PUT":
					routerGroup.PUT(route.Path, handlers...)
				case "DELETE":
					routerGroup.DELETE(route.Path, handlers...)
				case "PATCH":
					routerGroup.PATCH(route.Path, handlers...)
				}
			}
		}
	}
}
