// Package metaroute turns controller metadata into HTTP routes.
//
// Controllers are plain Go values. Their routes, parameters and role
// requirements are recorded in a Registry, either with the Controller builder
//
//	metaroute.Controller[UserController](reg, "/users").
//		Authorize("ADMIN").
//		Get("/:id", "Get", metaroute.Param("id")).
//		Post("", "Create", metaroute.Body[CreateUser]())
//
// or with annotations returned by an Annotated controller and applied through
// Annotate. Compile turns the registry into RouteDescriptors and UseServer
// mounts them on any WebServer; the adapters package ships Echo, Gin, Fiber
// and gorilla/mux implementations.
//
// Every failure raised while handling a request, including panics, reaches
// the error stage and is written as an ErrorBody.
package metaroute
