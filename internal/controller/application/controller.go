// Package application provides HTTP handlers for vacancy application operations.
package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/strhzy/vacancyhunter/internal/database"
	"github.com/strhzy/vacancyhunter/internal/mailer"
	"github.com/strhzy/vacancyhunter/internal/model"
	"github.com/strhzy/vacancyhunter/internal/storage"
	"github.com/strhzy/vacancyhunter/internal/utilities"
)

const resumeObjectPrefix = "resumes"

const uniqueViolationCode = "23505"

var allowedResumeExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".rtf":  true,
}

// ApplicationController handles application related endpoints
type ApplicationController struct {
	DB      *database.Service
	Storage storage.Client
	Mailer  mailer.Dispatcher
}

// NewApplicationController creates a new instance of ApplicationController.
// Storage and mailer may be nil: resumes then live inline in the database and
// notification emails are skipped.
func NewApplicationController(db *database.Service, store storage.Client, dispatcher mailer.Dispatcher) *ApplicationController {
	return &ApplicationController{
		DB:      db,
		Storage: store,
		Mailer:  dispatcher,
	}
}

// ApplyHandler handles a student applying to a vacancy. Repeating the request
// keeps the single existing application and only swaps the attached resume.
// @Summary Apply to a vacancy
// @Description Only student user can access this endpoint. Optional resume file (.pdf, .doc, .docx, .rtf) and note field.
// @Tags Application
// @Accept mpfd
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "ID of the vacancy"
// @Param resume formData file false "Resume file"
// @Param note formData string false "Message to the publisher"
// @Success 201 {object} model.Application "Application created"
// @Success 200 {object} model.Application "Application already existed"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body or file extension"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as student"
// @Failure 404 {object} utilities.ErrorResponse "Vacancy not found"
// @Failure 413 {object} utilities.ErrorResponse "File size is larger than 10 MB"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancy/{id}/apply [post]
func (a *ApplicationController) ApplyHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	vacancy := model.Vacancy{}
	if err := a.DB.Preload("PublishedBy").First(&vacancy, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Vacancy not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve vacancy: %s", err.Error()),
		})
		return
	}

	// Validate the resume before any row is written
	resumeBytes, resumeExt, ok := a.readResume(c)
	if !ok {
		return
	}

	application := model.Application{
		VacancyID: vacancy.ID,
		StudentID: user.ID,
		Note:      c.PostForm("note"),
	}

	now := time.Now()
	application.NotifiedAt = &now

	created := true
	if err := a.DB.Create(&application).Error; err == nil {
		// Re-read so the response carries the stored timestamps
		if err := a.DB.First(&application, application.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to retrieve application: %s", err.Error()),
			})
			return
		}
	} else {
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to create application: %s", err.Error()),
			})
			return
		}

		// Lost the race or re-applied: reuse the existing row, never
		// touching notified_at again
		created = false
		if err := a.DB.
			Where("vacancy_id = ? AND student_id = ?", vacancy.ID, user.ID).
			First(&application).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to retrieve existing application: %s", err.Error()),
			})
			return
		}
	}

	if resumeBytes != nil {
		resume, err := a.persistResume(resumeBytes, resumeExt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to store resume: %s", err.Error()),
			})
			return
		}
		application.ResumeID = &resume.ID
		application.Resume = resume
		if err := a.DB.Model(&model.Application{}).
			Where("id = ?", application.ID).
			Update("resume_id", resume.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to attach resume: %s", err.Error()),
			})
			return
		}
	}

	if created {
		a.notifyPublisher(user, vacancy, application, resumeBytes, resumeExt)
		c.JSON(http.StatusCreated, application)
		return
	}

	c.JSON(http.StatusOK, application)
}

// MyApplicationsHandler lists the calling student's applications.
// @Summary List own applications
// @Description Only student user can access this endpoint
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Application "Applications of the calling student"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as student"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /my-applications [get]
func (a *ApplicationController) MyApplicationsHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var applications []model.Application
	if err := a.DB.
		Preload("Vacancy").
		Preload("Vacancy.Categories").
		Preload("Resume").
		Where("student_id = ?", user.ID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve applications: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, applications)
}

// readResume pulls the optional resume file out of the multipart form. The
// boolean is false when an error response has already been written.
func (a *ApplicationController) readResume(c *gin.Context) ([]byte, string, bool) {
	rawFile, err := c.FormFile("resume")

	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{Error: err.Error()})
		return nil, "", false
	}
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, "", true
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve file: %s", err.Error()),
		})
		return nil, "", false
	}

	extension := strings.ToLower(filepath.Ext(rawFile.Filename))
	if !allowedResumeExtensions[extension] {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Unsupported file extension: %s", extension),
		})
		return nil, "", false
	}

	f, err := rawFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot open file"})
		return nil, "", false
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close uploaded file: %v", err)
		}
	}()

	fileBytes, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot read file"})
		return nil, "", false
	}

	return fileBytes, extension, true
}

// persistResume stores the resume bytes and creates the file record.
func (a *ApplicationController) persistResume(fileBytes []byte, extension string) (*model.File, error) {
	file := model.File{Extension: extension}

	if a.Storage == nil {
		file.Content = fileBytes
	} else {
		objectName := fmt.Sprintf("%s/%s%s", resumeObjectPrefix, uuid.NewString(), extension)
		if err := a.Storage.UploadFile(objectName, bytes.NewReader(fileBytes)); err != nil {
			return nil, err
		}
		file.StorageObjectName = &objectName
	}

	if err := a.DB.Create(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// notifyPublisher sends the notification email for a freshly created
// application. Failures are logged, never surfaced to the student.
func (a *ApplicationController) notifyPublisher(
	student model.User,
	vacancy model.Vacancy,
	application model.Application,
	resumeBytes []byte,
	resumeExt string,
) {
	if a.Mailer == nil || vacancy.PublishedBy == nil {
		return
	}

	notice := mailer.Notice{
		StudentName:  student.DisplayName(),
		VacancyTitle: vacancy.Title,
		TeacherEmail: vacancy.PublishedBy.Email,
		AppliedAt:    application.CreatedAt,
	}
	if resumeBytes != nil {
		notice.ResumeName = "resume" + resumeExt
		notice.ResumeContent = resumeBytes
	}

	if err := a.Mailer.SendApplicationNotice(notice); err != nil {
		log.Printf("failed to notify publisher about application %d: %v", application.ID, err)
	}
}
