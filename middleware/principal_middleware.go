package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"barangay-services-backend/models"
	apimodels "barangay-services-backend/models/api"
)

func GetClaims(ctx *fiber.Ctx) jwt.MapClaims {
	token, ok := ctx.Locals("user").(*jwt.Token)
	if !ok {
		return jwt.MapClaims{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return jwt.MapClaims{}
	}
	return claims
}

func claimString(claims jwt.MapClaims, name string) string {
	if value, exist := claims[name]; exist {
		if stringValue, ok := value.(string); ok {
			return stringValue
		}
	}
	return ""
}

// GetPrincipal rebuilds the caller identity from the token claims.
func GetPrincipal(ctx *fiber.Ctx) models.Principal {
	claims := GetClaims(ctx)
	return models.Principal{
		UserID:     claimString(claims, "sub"),
		Role:       models.UserRole(claimString(claims, "role")),
		BarangayID: claimString(claims, "barangay"),
		FullName:   claimString(claims, "name"),
		Email:      claimString(claims, "email"),
	}
}

func StaffRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !GetPrincipal(ctx).IsStaff() {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("staff role required"))
		}
		return ctx.Next()
	}
}

func AdminRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if GetPrincipal(ctx).Role != models.AdminRole {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("admin role required"))
		}
		return ctx.Next()
	}
}
