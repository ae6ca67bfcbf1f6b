// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	"github.com/strhzy/vacancyhunter/internal/auth"
	"github.com/strhzy/vacancyhunter/internal/controller/application"
	"github.com/strhzy/vacancyhunter/internal/controller/category"
	"github.com/strhzy/vacancyhunter/internal/controller/file"
	"github.com/strhzy/vacancyhunter/internal/controller/vacancy"
	"github.com/strhzy/vacancyhunter/internal/middleware"
	"github.com/strhzy/vacancyhunter/internal/model"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.Default()

	allowOriginsStr := os.Getenv("ALLOW_ORIGIN")
	allowOrigins := strings.Split(allowOriginsStr, ",")

	lAuth := auth.NewLocalAuthHandler(s.DB, s.Telegram)
	logout := auth.NewLogoutController(s.Blacklist)
	vacancyController := vacancy.NewVacancyController(s.DB)
	categoryController := category.NewCategoryController(s.DB)
	applicationController := application.NewApplicationController(s.DB, s.Storage, s.Mailer)
	fileController := file.NewFileController(s.DB, s.Storage)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", s.healthHandler)
	v1 := r.Group("/api/v1")
	{
		authRoute := v1.Group("/auth", middleware.EnvRateLimitMiddleware())
		{
			authRoute.POST("login", lAuth.LoginHandler)
			authRoute.POST("register", lAuth.RegisterHandler)
		}

		needAuth := v1.Group("")
		{
			needAuth.Use(middleware.RequireAuth(s.DB), middleware.JwtBlacklistCheck(s.Blacklist))
			needAuth.POST("/auth/logout", logout.LogoutHandler)

			needAuth.GET("/vacancy", vacancyController.GetVacancies)
			needAuth.GET("/vacancy/:id", vacancyController.GetVacancyByID)
			needAuth.GET("/category", categoryController.GetCategories)
			needAuth.GET("/file/:id", fileController.GetFile)

			studentRoute := needAuth.Group("")
			{
				studentRoute.Use(middleware.CheckRole(model.RoleStudent))
				studentRoute.POST("/vacancy/:id/apply", middleware.SizeLimit(10<<20), applicationController.ApplyHandler)
				studentRoute.GET("/my-applications", applicationController.MyApplicationsHandler)
			}

			teacherRoute := needAuth.Group("")
			{
				teacherRoute.Use(middleware.CheckRole(model.RoleTeacher))
				teacherRoute.POST("/vacancy", vacancyController.CreateVacancyHandler)
				teacherRoute.PATCH("/vacancy/:id", vacancyController.EditVacancyHandler)
				teacherRoute.DELETE("/vacancy/:id", vacancyController.DeleteVacancyHandler)
				teacherRoute.GET("/teacher/vacancies", vacancyController.GetOwnVacancies)
				teacherRoute.GET("/vacancy/:id/applications", vacancyController.GetVacancyApplicants)
			}
		}
	}

	return r
}

func (s *MyServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.DB.Health())
}
