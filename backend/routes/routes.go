package routes

import (
	"lms/backend/config"
	"lms/backend/controllers"
	"lms/backend/middleware"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *utils.Logger) {
	authService := services.NewAuthService(db, logger, cfg)
	catalogService := services.NewCatalogService(db, logger, cfg.CourseUpdateRetries)
	enrollmentService := services.NewEnrollmentService(db, logger, cfg.CourseUpdateRetries)
	reviewService := services.NewReviewService(db, logger)

	api := app.Group("/api")

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(cfg)

	// Auth routes
	authController := controllers.NewAuthController(authService, cfg, logger)
	api.Post("/auth/register", authController.Register)
	api.Post("/auth/login", authController.Login)
	api.Get("/auth/me", authMiddleware, authController.Me)

	// User routes
	userController := controllers.NewUserController(authService, enrollmentService, logger)
	api.Get("/user/profile", authMiddleware, userController.GetProfile)
	api.Put("/user/profile", authMiddleware, userController.UpdateProfile)
	api.Get("/user/courses", authMiddleware, userController.GetEnrolledCourses)
	api.Get("/users", adminMiddleware, userController.ListUsers)

	// Catalog routes
	catalogController := controllers.NewCatalogController(catalogService, logger)
	api.Get("/categories", catalogController.GetCategories)
	api.Post("/categories", adminMiddleware, catalogController.CreateCategory)
	api.Delete("/categories/:id", adminMiddleware, catalogController.DeleteCategory)
	api.Get("/subcategories", catalogController.GetSubcategories)
	api.Post("/subcategories", adminMiddleware, catalogController.CreateSubcategory)
	api.Delete("/subcategories/:id", adminMiddleware, catalogController.DeleteSubcategory)

	// Overview routes
	overviewController := controllers.NewOverviewController(catalogService, logger)
	api.Get("/overview/courses", overviewController.SearchCourses)

	// Courses routes
	coursesController := controllers.NewCoursesController(catalogService, logger)
	enrollmentController := controllers.NewEnrollmentController(enrollmentService, logger)
	reviewsController := controllers.NewReviewsController(reviewService, logger)

	courses := api.Group("/courses")
	courses.Get("/", coursesController.GetCourses)
	courses.Get("/:id", coursesController.GetCourse)
	courses.Post("/:id/enroll", authMiddleware, enrollmentController.Enroll)
	courses.Post("/:id/progress", authMiddleware, enrollmentController.RecordProgress)
	courses.Get("/:id/progress", authMiddleware, enrollmentController.GetProgress)
	courses.Get("/:id/analytics", adminMiddleware, enrollmentController.GetCourseAnalytics)
	courses.Get("/:id/reviews", reviewsController.GetReviews)
	courses.Get("/:id/reviews/summary", reviewsController.GetSummary)
	courses.Post("/:id/reviews", authMiddleware, reviewsController.AddReview)

	// Admin routes for courses
	courses.Post("/", adminMiddleware, coursesController.CreateCourse)
	courses.Put("/:id", adminMiddleware, coursesController.UpdateCourse)
	courses.Delete("/:id", adminMiddleware, coursesController.DeleteCourse)
}
