package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// RequireRole возвращает middleware, пропускающий запрос только при роли
// не ниже minRole. Роль берётся из контекста, заполненного JWTMiddleware.
func RequireRole(minRole models.Role, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireRole"

			roleStr, ok := r.Context().Value(Role).(string)
			if !ok || roleStr == "" {
				log.Error("role not found in context", slog.String("op", op))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			role, err := models.ParseRole(roleStr)
			if err != nil || !role.AtLeast(minRole) {
				log.Error("insufficient role",
					slog.String("op", op),
					slog.String("role", roleStr),
					slog.String("required", minRole.String()))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
