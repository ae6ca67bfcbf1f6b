// Package category provides HTTP handlers for vacancy category lookups.
package category

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strhzy/vacancyhunter/internal/database"
	"github.com/strhzy/vacancyhunter/internal/model"
	"github.com/strhzy/vacancyhunter/internal/utilities"
)

// CategoryController handles category related endpoints
type CategoryController struct {
	DB *database.Service
}

// NewCategoryController creates a new instance of CategoryController
func NewCategoryController(db *database.Service) *CategoryController {
	return &CategoryController{
		DB: db,
	}
}

// GetCategories lists every category, ordered by name.
// @Summary Get all categories
// @Tags Category
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Category "Return all categories"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /category [get]
func (cc *CategoryController) GetCategories(c *gin.Context) {
	var categories []model.Category
	if err := cc.DB.Order("name ASC").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to fetch categories: ", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, categories)
}
