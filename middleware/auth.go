package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Claims personalizados para el JWT
type Claims struct {
	UserID int    `json:"user_id"`
	Rol    string `json:"rol"`
	jwt.RegisteredClaims
}

// JWT firma y valida los tokens de acceso del personal
type JWT struct {
	secret []byte
	ttl    time.Duration
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWT{secret: []byte(secret), ttl: ttl}
}

// TTL retorna la vigencia de los tokens emitidos
func (j *JWT) TTL() time.Duration {
	return j.ttl
}

// GenerateJWT genera un token JWT para un usuario
func (j *JWT) GenerateJWT(userID int, rol string) (string, error) {
	claims := Claims{
		UserID: userID,
		Rol:    rol,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *JWT) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("token inválido")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("claims inválidos")
	}
	return claims, nil
}

// Middleware valida el header "Authorization: Bearer <token>"
func (j *JWT) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token de autorización requerido",
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Formato de token inválido",
			})
		}

		claims, err := j.parse(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token inválido",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_rol", claims.Rol)
		return c.Next()
	}
}

// RequireRole middleware para requerir un rol específico
func RequireRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rol, ok := c.Locals("user_rol").(string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Rol de usuario no encontrado",
			})
		}
		for _, role := range allowedRoles {
			if rol == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Acceso denegado: permisos insuficientes",
		})
	}
}
