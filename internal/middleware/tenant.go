package middleware

import (
	"context"
	"net/http"
	"strings"
)

// ShopLookup resuelve el taller (tenant) del usuario autenticado.
// Lo implementa shops.Service; la interfaz evita importar el dominio acá.
type ShopLookup interface {
	ShopIDForUser(ctx context.Context, userID string) (string, error)
}

// Tenant es lo que necesita cualquier handler con datos de un taller.
type Tenant struct {
	UserID string
	ShopID string
}

// ShopContext agrega el shop_id al contexto cuando el usuario ya tiene taller.
// Igual que AuthContext, no corta el request: RequireTenant decide.
func ShopContext(lookup ShopLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok || lookup == nil || strings.TrimSpace(claims.UserID) == "" {
				next.ServeHTTP(w, r)
				return
			}

			shopID, err := lookup.ShopIDForUser(r.Context(), claims.UserID)
			if err != nil || strings.TrimSpace(shopID) == "" {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithShopID(r.Context(), shopID)))
		})
	}
}

func WithShopID(ctx context.Context, shopID string) context.Context {
	return context.WithValue(ctx, shopKey, shopID)
}

func GetShopID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(shopKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// RequireTenant escribe 401/403 y devuelve ok=false si falta usuario o taller.
func RequireTenant(w http.ResponseWriter, r *http.Request) (Tenant, bool) {
	claims, ok := GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Tenant{}, false
	}
	shopID, ok := GetShopID(r.Context())
	if !ok {
		http.Error(w, "shop required", http.StatusForbidden)
		return Tenant{}, false
	}
	return Tenant{UserID: claims.UserID, ShopID: shopID}, true
}
