package middleware

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
	"github.com/velomarket/marketplace-auth/internal/core/ports"
)

const productKey = "product"

// OwnerExtractor reads the owner id a request claims to act on. Endpoints
// carry it in different places (a path parameter or a body field), so the
// predicate takes the extraction as an argument.
type OwnerExtractor func(c echo.Context) string

// OwnerFromParam extracts the owner id from a path parameter.
func OwnerFromParam(name string) OwnerExtractor {
	return func(c echo.Context) string {
		return c.Param(name)
	}
}

// OwnerFromBody extracts the owner id from a top-level JSON body field.
// The body is restored afterwards so handlers can still bind it.
func OwnerFromBody(field string) OwnerExtractor {
	return func(c echo.Context) string {
		req := c.Request()
		if req.Body == nil {
			return ""
		}
		body, err := io.ReadAll(req.Body)
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return ""
		}

		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return ""
		}
		owner, _ := payload[field].(string)
		return owner
	}
}

// RequireRole allows only identities with exactly the given role.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return RequireAnyRole(role)
}

// RequireAnyRole allows identities whose role is in the given set.
func RequireAnyRole(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := IdentityFrom(c)
			if !ok {
				return domain.ErrMissingCredential
			}
			if _, ok := allowed[user.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RequireOwnerOrAdmin allows admins unconditionally, and other identities
// only when the extracted owner id matches their own. An empty extraction
// denies non-admins.
func RequireOwnerOrAdmin(extract OwnerExtractor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := IdentityFrom(c)
			if !ok {
				return domain.ErrMissingCredential
			}
			if user.Role == domain.RoleAdmin {
				return next(c)
			}
			if owner := extract(c); owner != "" && owner == user.ID {
				return next(c)
			}
			return domain.ErrForbidden
		}
	}
}

// RequireProductOwner loads the product from the :id path parameter and
// allows admins or the owning merchant. The missing-resource check runs
// before the ownership comparison. On success the product is attached to
// the context so handlers avoid a second lookup.
func RequireProductOwner(products ports.ProductRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := IdentityFrom(c)
			if !ok {
				return domain.ErrMissingCredential
			}

			product, err := products.FindByID(c.Request().Context(), c.Param("id"))
			if err != nil {
				return err
			}

			if user.Role != domain.RoleAdmin && product.MerchantID != user.ID {
				return domain.ErrForbidden
			}

			c.Set(productKey, product)
			return next(c)
		}
	}
}

// ProductFrom returns the product attached by RequireProductOwner, if any.
func ProductFrom(c echo.Context) (*domain.Product, bool) {
	product, ok := c.Get(productKey).(*domain.Product)
	return product, ok
}
