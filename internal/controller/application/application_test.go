package application

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"

	"github.com/strhzy/vacancyhunter/internal/auth"
	"github.com/strhzy/vacancyhunter/internal/database"
	"github.com/strhzy/vacancyhunter/internal/mailer"
	"github.com/strhzy/vacancyhunter/internal/middleware"
	"github.com/strhzy/vacancyhunter/internal/model"
	"github.com/strhzy/vacancyhunter/internal/testutil"
)

var testDB *database.Service

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var midTeardown func(context.Context, ...testcontainers.TerminateOption) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
}

// captureMailer records every notice instead of delivering it.
type captureMailer struct {
	notices []mailer.Notice
}

func (cm *captureMailer) SendApplicationNotice(n mailer.Notice) error {
	cm.notices = append(cm.notices, n)
	return nil
}

func newApplyRouter(cm *captureMailer) *gin.Engine {
	r := gin.Default()
	ac := NewApplicationController(testDB, nil, cm)
	r.POST("/vacancy/:id/apply",
		middleware.RequireAuth(testDB),
		middleware.CheckRole(model.RoleStudent),
		ac.ApplyHandler)
	r.GET("/my-applications",
		middleware.RequireAuth(testDB),
		middleware.CheckRole(model.RoleStudent),
		ac.MyApplicationsHandler)
	return r
}

func performRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func cleanupApplications(t *testing.T, vacancyID uint, studentID interface{}) {
	t.Helper()
	if err := testDB.Where("vacancy_id = ? AND student_id = ?", vacancyID, studentID).
		Delete(&model.Application{}).Error; err != nil {
		t.Fatalf("failed to cleanup existing applications: %v", err)
	}
}

func TestApplyHandler_Success(t *testing.T) {
	studentToken, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Username, database.TestSeedPassword)
	assert.NoError(t, err)

	cleanupApplications(t, database.TestVacancy1.ID, database.TestStudent1.ID)

	cm := &captureMailer{}
	r := newApplyRouter(cm)

	rec, resp := testutil.MakeMultipartRequest(
		map[string]string{"note": "Looking forward to the internship"},
		"resume", "ivan-petrov.pdf", []byte("%PDF-1.4 resume"),
		studentToken, r, "/vacancy/"+fmt.Sprint(database.TestVacancy1.ID)+"/apply", http.MethodPost)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotNil(t, resp["notified_at"])
	assert.NotNil(t, resp["resume_id"])

	var count int64
	err = testDB.Model(&model.Application{}).
		Where("vacancy_id = ? AND student_id = ?", database.TestVacancy1.ID, database.TestStudent1.ID).
		Count(&count).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Exactly one notification, addressed to the vacancy publisher
	assert.Len(t, cm.notices, 1)
	assert.Equal(t, database.TestTeacher1.Email, cm.notices[0].TeacherEmail)
	assert.Equal(t, database.TestVacancy1.Title, cm.notices[0].VacancyTitle)
	assert.Equal(t, "resume.pdf", cm.notices[0].ResumeName)
}

func TestApplyHandler_DuplicateKeepsSingleRow(t *testing.T) {
	studentToken, err := auth.GetAccessToken(t, testDB, database.TestStudent2.Username, database.TestSeedPassword)
	assert.NoError(t, err)

	cleanupApplications(t, database.TestVacancy2.ID, database.TestStudent2.ID)

	cm := &captureMailer{}
	r := newApplyRouter(cm)
	endpoint := "/vacancy/" + fmt.Sprint(database.TestVacancy2.ID) + "/apply"

	rec, first := testutil.MakeMultipartRequest(
		nil, "resume", "anna.pdf", []byte("first version"),
		studentToken, r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec2, second := testutil.MakeMultipartRequest(
		nil, "resume", "anna-v2.docx", []byte("second version"),
		studentToken, r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec2.Code)

	// Same row, replaced resume, notification timestamp untouched
	assert.Equal(t, first["id"], second["id"])
	assert.Equal(t, first["notified_at"], second["notified_at"])
	assert.NotEqual(t, first["resume_id"], second["resume_id"])

	var count int64
	err = testDB.Model(&model.Application{}).
		Where("vacancy_id = ? AND student_id = ?", database.TestVacancy2.ID, database.TestStudent2.ID).
		Count(&count).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.Len(t, cm.notices, 1)
}

func TestApplyHandler_RejectsUnsupportedExtension(t *testing.T) {
	studentToken, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Username, database.TestSeedPassword)
	assert.NoError(t, err)

	cleanupApplications(t, database.TestVacancy2.ID, database.TestStudent1.ID)

	cm := &captureMailer{}
	r := newApplyRouter(cm)

	rec, resp := testutil.MakeMultipartRequest(
		nil, "resume", "malware.exe", []byte("MZ"),
		studentToken, r, "/vacancy/"+fmt.Sprint(database.TestVacancy2.ID)+"/apply", http.MethodPost)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "Unsupported file extension")

	// Nothing written, nothing sent
	var count int64
	err = testDB.Model(&model.Application{}).
		Where("vacancy_id = ? AND student_id = ?", database.TestVacancy2.ID, database.TestStudent1.ID).
		Count(&count).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Empty(t, cm.notices)
}

func TestApplyHandler_UnknownVacancy(t *testing.T) {
	studentToken, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Username, database.TestSeedPassword)
	assert.NoError(t, err)

	cm := &captureMailer{}
	r := newApplyRouter(cm)

	rec, resp := testutil.MakeMultipartRequest(
		nil, "", "", nil,
		studentToken, r, "/vacancy/999999/apply", http.MethodPost)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, resp["error"], "Vacancy not found")
	assert.Empty(t, cm.notices)
}

func TestApplyHandler_TeacherForbidden(t *testing.T) {
	teacherToken, err := auth.GetAccessToken(t, testDB, database.TestTeacher1.Username, database.TestSeedPassword)
	assert.NoError(t, err)

	cleanupApplications(t, database.TestVacancy1.ID, database.TestTeacher1.ID)

	cm := &captureMailer{}
	r := newApplyRouter(cm)

	rec, _ := testutil.MakeMultipartRequest(
		nil, "", "", nil,
		teacherToken, r, "/vacancy/"+fmt.Sprint(database.TestVacancy1.ID)+"/apply", http.MethodPost)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var count int64
	err = testDB.Model(&model.Application{}).
		Where("vacancy_id = ? AND student_id = ?", database.TestVacancy1.ID, database.TestTeacher1.ID).
		Count(&count).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Empty(t, cm.notices)
}

func TestMyApplicationsHandler(t *testing.T) {
	studentToken, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Username, database.TestSeedPassword)
	assert.NoError(t, err)

	cleanupApplications(t, database.TestVacancy1.ID, database.TestStudent1.ID)

	cm := &captureMailer{}
	r := newApplyRouter(cm)

	rec, _ := testutil.MakeMultipartRequest(
		map[string]string{"note": "hello"}, "", "", nil,
		studentToken, r, "/vacancy/"+fmt.Sprint(database.TestVacancy1.ID)+"/apply", http.MethodPost)
	assert.Equal(t, http.StatusCreated, rec.Code)

	req, _ := http.NewRequest(http.MethodGet, "/my-applications", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	listRec := performRequest(r, req)

	assert.Equal(t, http.StatusOK, listRec.Code)
	assert.Contains(t, listRec.Body.String(), `"vacancy_id":`+fmt.Sprint(database.TestVacancy1.ID))
}
