package demo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/toyz/metaroute/pkg/metaroute"
)

// WidgetController serves the public widget API. Its routes are declared with
// the builder in RegisterWidgets.
type WidgetController struct {
	store *WidgetStore
}

// NewWidgetController creates a controller backed by store
func NewWidgetController(store *WidgetStore) *WidgetController {
	return &WidgetController{store: store}
}

// RegisterWidgets records the WidgetController routes in reg
func RegisterWidgets(reg *metaroute.Registry) error {
	return metaroute.Controller[WidgetController](reg, "/widgets").
		Get("", "List").
		Get("/search", "FindByRef", metaroute.Query("ref")).
		Get("/:id", "Get", metaroute.Param("id").At(1)).
		Get("/:id/summary", "Summary", metaroute.Param("id")).
		Post("", "Create", metaroute.Body[Widget](), metaroute.Header("X-Request-Id")).
		Put("/:id", "Update", metaroute.Param("id"), metaroute.Body[Widget]()).
		Delete("/:id", "Delete", metaroute.Param("id")).
		Route(http.MethodGet, "/debug/raw", "Raw", metaroute.RawRequest(), metaroute.RawResponse()).
		Err()
}

func (c *WidgetController) List() []Widget {
	return c.store.List()
}

func (c *WidgetController) FindByRef(ref string) (Widget, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return Widget{}, metaroute.ErrBadRequest("Invalid ref").WithCause(err)
	}
	return c.store.FindByRef(id)
}

// Get receives the request context in slot 0 without a descriptor
func (c *WidgetController) Get(ctx context.Context, id int) (Widget, error) {
	if err := ctx.Err(); err != nil {
		return Widget{}, err
	}
	return c.store.Get(id)
}

// Summary computes its answer on another goroutine
func (c *WidgetController) Summary(id int) *metaroute.Pending {
	return metaroute.Async(func() (any, error) {
		w, err := c.store.Get(id)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"id":      w.ID,
			"summary": fmt.Sprintf("%s costs %.2f", w.Name, w.Price),
			"age":     time.Since(w.CreatedAt).Round(time.Second).String(),
		}, nil
	})
}

func (c *WidgetController) Create(w *Widget, requestID string) *metaroute.Response {
	created := c.store.Add(*w)
	return metaroute.Created(map[string]any{
		"widget":    created,
		"requestId": requestID,
	})
}

func (c *WidgetController) Update(id int, w Widget) (Widget, error) {
	return c.store.Update(id, w)
}

func (c *WidgetController) Delete(id int) error {
	return c.store.Delete(id)
}

func (c *WidgetController) Raw(req, res any) map[string]string {
	return map[string]string{
		"request":  fmt.Sprintf("%T", req),
		"response": fmt.Sprintf("%T", res),
	}
}

// AccountController serves the authenticated user's account. Its routes are
// declared with annotations.
type AccountController struct {
	store *WidgetStore
}

// NewAccountController creates a controller backed by store
func NewAccountController(store *WidgetStore) *AccountController {
	return &AccountController{store: store}
}

func (c *AccountController) Annotations() metaroute.Annotations {
	return metaroute.Annotations{
		"":        `@JsonController("/account") @Authorize("USER", "ADMIN")`,
		"Me":      `@Get("/me") @CurrentUser`,
		"Token":   `@Route(GET, "/token") @EncodedJwtToken`,
		"Adopt":   `@Post("/widgets/:id") @Param("id") @CurrentUser`,
		"Explode": `@Get("/explode")`,
	}
}

func (c *AccountController) Me(user *User) *User {
	return user
}

func (c *AccountController) Token(token string) map[string]int {
	return map[string]int{"length": len(token)}
}

// Adopt makes the current user the owner of a widget
func (c *AccountController) Adopt(ctx context.Context, id int, user *User) (Widget, error) {
	if err := ctx.Err(); err != nil {
		return Widget{}, err
	}
	return c.store.SetOwner(id, user.ID)
}

// Explode always panics, to show that panics reach the error handler
func (c *AccountController) Explode() {
	panic("account service exploded")
}

// AdminController exposes store statistics to administrators
type AdminController struct {
	store *WidgetStore
}

// NewAdminController creates a controller backed by store
func NewAdminController(store *WidgetStore) *AdminController {
	return &AdminController{store: store}
}

func (c *AdminController) Annotations() metaroute.Annotations {
	return metaroute.Annotations{
		"":      `@JsonController("/admin") @Authorize("ADMIN")`,
		"Stats": `@Get("/stats")`,
	}
}

func (c *AdminController) Stats() map[string]int {
	return map[string]int{"widgets": c.store.Len()}
}
