package annotations

// Canonical annotation names
const (
	JsonController  = "JsonController"
	Authorize       = "Authorize"
	Route           = "Route"
	Get             = "Get"
	Post            = "Post"
	Put             = "Put"
	Patch           = "Patch"
	Delete          = "Delete"
	Body            = "Body"
	CurrentUser     = "CurrentUser"
	EncodedJwtToken = "EncodedJwtToken"
	HeaderParam     = "HeaderParam"
	Param           = "Param"
	QueryParam      = "QueryParam"
	Req             = "Req"
	Res             = "Res"
)

// unbounded marks a schema that accepts any number of arguments
const unbounded = -1

// Schema describes one annotation: where it may appear and how many arguments it takes
type Schema struct {
	Name        string
	Aliases     []string
	Target      Target
	MinArgs     int
	MaxArgs     int
	Description string
	Examples    []string
}

// BuiltinSchemas returns the schemas every registry created by DefaultRegistry knows
func BuiltinSchemas() []Schema {
	return []Schema{
		{
			Name:        JsonController,
			Aliases:     []string{"Controller"},
			Target:      ClassTarget,
			MaxArgs:     1,
			Description: "Marks a type as a JSON controller mounted under a base route",
			Examples:    []string{`@JsonController("/widgets")`, `@JsonController`},
		},
		{
			Name:        Authorize,
			Target:      ClassTarget,
			MaxArgs:     unbounded,
			Description: "Requires the listed roles for every route of the controller",
			Examples:    []string{`@Authorize("ADMIN", "EDITOR")`},
		},
		{
			Name:        Route,
			Target:      MethodTarget,
			MinArgs:     2,
			MaxArgs:     2,
			Description: "Binds a method to an HTTP verb and path",
			Examples:    []string{`@Route(GET, "/:id")`, `@Route("post", "/")`},
		},
		verbSchema(Get),
		verbSchema(Post),
		verbSchema(Put),
		verbSchema(Patch),
		verbSchema(Delete),
		{
			Name:        Body,
			Target:      ParameterTarget,
			Description: "Injects the transformed and validated JSON request body",
			Examples:    []string{`@Body`},
		},
		{
			Name:        CurrentUser,
			Target:      ParameterTarget,
			Description: "Injects the value returned by the current-user callback",
			Examples:    []string{`@CurrentUser`},
		},
		{
			Name:        EncodedJwtToken,
			Target:      ParameterTarget,
			Description: "Injects the bearer token of the Authorization header",
			Examples:    []string{`@EncodedJwtToken`},
		},
		{
			Name:        HeaderParam,
			Aliases:     []string{"Header"},
			Target:      ParameterTarget,
			MinArgs:     1,
			MaxArgs:     1,
			Description: "Injects a request header",
			Examples:    []string{`@HeaderParam("X-Request-Id")`},
		},
		{
			Name:        Param,
			Aliases:     []string{"PathParam"},
			Target:      ParameterTarget,
			MinArgs:     1,
			MaxArgs:     1,
			Description: "Injects a JSON-decoded path parameter",
			Examples:    []string{`@Param("id")`},
		},
		{
			Name:        QueryParam,
			Aliases:     []string{"Query"},
			Target:      ParameterTarget,
			MinArgs:     1,
			MaxArgs:     1,
			Description: "Injects a query parameter as a string",
			Examples:    []string{`@QueryParam("q")`},
		},
		{
			Name:        Req,
			Aliases:     []string{"Request"},
			Target:      ParameterTarget,
			Description: "Injects the framework's native request",
			Examples:    []string{`@Req`},
		},
		{
			Name:        Res,
			Aliases:     []string{"Response"},
			Target:      ParameterTarget,
			Description: "Injects the framework's native response",
			Examples:    []string{`@Res`},
		},
	}
}

func verbSchema(name string) Schema {
	return Schema{
		Name:        name,
		Target:      MethodTarget,
		MinArgs:     0,
		MaxArgs:     1,
		Description: "Shorthand for @Route(" + name + ", path)",
		Examples:    []string{"@" + name + `("/:id")`},
	}
}
