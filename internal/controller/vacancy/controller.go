// Package vacancy provides HTTP handlers for vacancy related operations.
package vacancy

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/strhzy/vacancyhunter/internal/database"
	"github.com/strhzy/vacancyhunter/internal/model"
	"github.com/strhzy/vacancyhunter/internal/utilities"
)

// VacancyController handles vacancy related endpoints
type VacancyController struct {
	DB *database.Service
}

// NewVacancyController creates a new instance of VacancyController
func NewVacancyController(db *database.Service) *VacancyController {
	return &VacancyController{
		DB: db,
	}
}

var errDuplicateCategory = errors.New("category with this name already exists")

// vacancyInput is the request body for creating a vacancy. A free-text
// new_category is created and attached alongside any existing category ids.
type vacancyInput struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company" binding:"required"`
	Description string `json:"description"`
	CategoryIDs []uint `json:"category_ids"`
	NewCategory string `json:"new_category"`
	Active      *bool  `json:"active"`
}

// vacancyUpdate is the request body for partial vacancy edits.
type vacancyUpdate struct {
	Title       *string `json:"title"`
	Company     *string `json:"company"`
	Description *string `json:"description"`
	CategoryIDs *[]uint `json:"category_ids"`
	Active      *bool   `json:"active"`
}

// vacancyDetail augments a vacancy with the caller-specific applied flag.
type vacancyDetail struct {
	model.Vacancy
	AlreadyApplied *bool `json:"already_applied,omitempty"`
}

// GetVacancies fetches all active vacancies, optionally narrowed to a
// single category.
// @Summary Get active vacancies
// @Description Optional category query narrows results to one category id
// @Tags Vacancy
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param category query integer false "Category id to filter by"
// @Success 200 {array} model.Vacancy "Return active vacancies"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancy [get]
func (vc *VacancyController) GetVacancies(c *gin.Context) {
	var vacancies []model.Vacancy

	result := vc.DB.Preload("Categories").Where("vacancies.active = ?", true)

	if rawCategory := c.Query("category"); rawCategory != "" {
		result = result.
			Joins("JOIN vacancy_categories ON vacancy_categories.vacancy_id = vacancies.id").
			Where("vacancy_categories.category_id = ?", rawCategory).
			Distinct("vacancies.*")
	}

	if err := result.Order("vacancies.created_at DESC").Find(&vacancies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to fetch vacancies: ", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, vacancies)
}

// GetVacancyByID fetches a single vacancy. For students the response carries
// an already_applied flag so the client can disable the apply form.
// @Summary Get vacancy by ID
// @Tags Vacancy
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired vacancy"
// @Success 200 {object} model.Vacancy "Return the vacancy with the specified ID"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Vacancy not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancy/{id} [get]
func (vc *VacancyController) GetVacancyByID(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	vacancy := model.Vacancy{}
	if err := vc.DB.
		Preload("Categories").
		Where("id = ?", c.Param("id")).
		First(&vacancy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Vacancy not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve vacancy: %s", err.Error()),
		})
		return
	}

	detail := vacancyDetail{Vacancy: vacancy}
	if user.IsStudent() {
		var count int64
		if err := vc.DB.Model(&model.Application{}).
			Where("vacancy_id = ? AND student_id = ?", vacancy.ID, user.ID).
			Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to check existing application: %s", err.Error()),
			})
			return
		}
		applied := count > 0
		detail.AlreadyApplied = &applied
	}

	c.JSON(http.StatusOK, detail)
}

// CreateVacancyHandler handles the creation of a new vacancy by a teacher.
// @Summary Create vacancy based on given json structure
// @Description Only teacher user can access this endpoint. Optional new_category creates and attaches a category in the same transaction.
// @Tags Vacancy
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Vacancy body vacancyInput true "Input vacancy information"
// @Success 201 {object} model.Vacancy "Successfully create vacancy"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body or duplicate category name"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as teacher"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancy [post]
func (vc *VacancyController) CreateVacancyHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	input := vacancyInput{}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	vacancy := model.Vacancy{
		Title:         input.Title,
		Company:       input.Company,
		Description:   input.Description,
		PublishedByID: &user.ID,
		Active:        true,
	}
	if input.Active != nil {
		vacancy.Active = *input.Active
	}

	err = vc.DB.Transaction(func(tx *gorm.DB) error {
		categories, err := resolveCategories(tx, input.CategoryIDs, input.NewCategory)
		if err != nil {
			return err
		}
		vacancy.Categories = categories
		return tx.Create(&vacancy).Error
	})
	if err != nil {
		if errors.Is(err, errDuplicateCategory) {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Category with this name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to create vacancy: ", err),
		})
		return
	}

	c.JSON(http.StatusCreated, vacancy)
}

// EditVacancyHandler allows a teacher to update a vacancy they published.
// A vacancy published by someone else answers 404.
// @Summary Edit vacancy based on given json structure
// @Description Only the teacher that published the vacancy can access this endpoint
// @Tags Vacancy
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired vacancy"
// @Param Vacancy body vacancyUpdate true "Fields to update"
// @Success 200 {object} model.Vacancy "Successfully update vacancy"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as teacher"
// @Failure 404 {object} utilities.ErrorResponse "Vacancy not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancy/{id} [patch]
func (vc *VacancyController) EditVacancyHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	vacancy, ok := vc.ownedVacancy(c, user)
	if !ok {
		return
	}

	update := vacancyUpdate{}
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to parse request body: %s", err.Error()),
		})
		return
	}

	fields := map[string]interface{}{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Company != nil {
		fields["company"] = *update.Company
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Active != nil {
		fields["active"] = *update.Active
	}

	err = vc.DB.Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&vacancy).Updates(fields).Error; err != nil {
				return err
			}
		}
		if update.CategoryIDs != nil {
			var categories []model.Category
			if err := tx.Find(&categories, *update.CategoryIDs).Error; err != nil {
				return err
			}
			if err := tx.Model(&vacancy).Association("Categories").Replace(categories); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update vacancy: %s", err.Error()),
		})
		return
	}

	if err := vc.DB.Preload("Categories").First(&vacancy, vacancy.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve updated vacancy: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, vacancy)
}

// DeleteVacancyHandler allows a teacher to delete a vacancy they published.
// @Summary Delete given vacancy ID
// @Description Only the teacher that published the vacancy can access this endpoint
// @Tags Vacancy
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired vacancy"
// @Success 200 {object} utilities.MessageResponse "Successfully delete vacancy"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as teacher"
// @Failure 404 {object} utilities.ErrorResponse "Vacancy not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancy/{id} [delete]
func (vc *VacancyController) DeleteVacancyHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	vacancy, ok := vc.ownedVacancy(c, user)
	if !ok {
		return
	}

	if err := vc.DB.Select(clause.Associations).Delete(&vacancy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete vacancy: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Vacancy deleted"})
}

// GetOwnVacancies lists the calling teacher's vacancies, inactive ones
// included.
// @Summary List vacancies published by the calling teacher
// @Tags Vacancy
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Vacancy "Vacancies published by the caller"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as teacher"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /teacher/vacancies [get]
func (vc *VacancyController) GetOwnVacancies(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var vacancies []model.Vacancy
	if err := vc.DB.
		Preload("Categories").
		Where("published_by_id = ?", user.ID).
		Order("created_at DESC").
		Find(&vacancies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to fetch vacancies: ", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, vacancies)
}

// GetVacancyApplicants lists applications for a vacancy the caller published.
// @Summary List applicants for an owned vacancy
// @Description Only the teacher that published the vacancy can access this endpoint
// @Tags Vacancy
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired vacancy"
// @Success 200 {array} model.Application "Applications for the vacancy"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as teacher"
// @Failure 404 {object} utilities.ErrorResponse "Vacancy not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancy/{id}/applications [get]
func (vc *VacancyController) GetVacancyApplicants(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	vacancy, ok := vc.ownedVacancy(c, user)
	if !ok {
		return
	}

	var applications []model.Application
	if err := vc.DB.
		Preload("Student").
		Preload("Resume").
		Where("vacancy_id = ?", vacancy.ID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve applications: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, applications)
}

// ownedVacancy loads the vacancy from the id path parameter scoped to the
// given publisher. Foreign or missing vacancies both answer 404 so ownership
// is not leaked. Returns false when a response has been written.
func (vc *VacancyController) ownedVacancy(c *gin.Context, user model.User) (model.Vacancy, bool) {
	vacancy := model.Vacancy{}
	if err := vc.DB.
		Where("id = ? AND published_by_id = ?", c.Param("id"), user.ID).
		First(&vacancy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Vacancy not found"})
			return vacancy, false
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve vacancy: %s", err.Error()),
		})
		return vacancy, false
	}
	return vacancy, true
}

// resolveCategories collects the referenced categories and creates the
// free-text one, rejecting names that already exist in any letter case.
func resolveCategories(tx *gorm.DB, ids []uint, newName string) ([]model.Category, error) {
	var categories []model.Category
	if len(ids) > 0 {
		if err := tx.Find(&categories, ids).Error; err != nil {
			return nil, err
		}
	}

	if newName != "" {
		var count int64
		if err := tx.Model(&model.Category{}).
			Where("LOWER(name) = LOWER(?)", newName).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errDuplicateCategory
		}

		created := model.Category{Name: newName}
		if err := tx.Create(&created).Error; err != nil {
			return nil, err
		}
		categories = append(categories, created)
	}

	return categories, nil
}
