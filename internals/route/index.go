// file: internals/route/index.go
package routes

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"akademiku_backend/internals/constants"
	authMiddleware "akademiku_backend/internals/middlewares/auth"
	routeDetails "akademiku_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	BaseRoutes(app, db)

	jwtSecret := os.Getenv("JWT_SECRET")

	// ===================== PRIVATE (USER) =====================
	log.Println("[INFO] Setting up USER group...")
	user := app.Group("/api/u",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              jwtSecret,
			AllowCookieFallback: true,
		}),
	)
	routeDetails.LearningUserRoutes(user, db)

	// ===================== ADMIN (teacher and above) =====================
	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              jwtSecret,
			AllowCookieFallback: true,
		}),
		authMiddleware.OnlyRoles(
			"Only teachers and above may manage learning content",
			constants.TeacherAndAbove...,
		),
	)
	routeDetails.LearningAdminRoutes(admin, db)
}
