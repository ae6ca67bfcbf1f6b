package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	m "github.com/strhzy/vacancyhunter/internal/model"
	"github.com/strhzy/vacancyhunter/internal/utilities"
)

var testDBInstance *Service
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported test users and records shared across package tests.
var (
	TestStudent1 m.User
	TestStudent2 m.User
	TestTeacher1 m.User
	TestTeacher2 m.User

	// Shared plain password for every seeded account
	TestSeedPassword = "SeedPass123!"

	TestCategoryBackend m.Category
	TestCategoryData    m.Category

	TestVacancy1 m.Vacancy // active, teacher 1
	TestVacancy2 m.Vacancy // active, teacher 2
	TestVacancy3 m.Vacancy // inactive, teacher 1
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *Service, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	// Database configuration
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		useConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts sample student and teacher accounts, categories and
// vacancies when the database is empty.
func seedTestData(db *Service) error {
	var userCount int64
	if err := db.Model(&m.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return loadTestData(db)
	}

	hashedPwd, err := utilities.HashPassword(TestSeedPassword)
	if err != nil {
		return err
	}

	userSpecs := []struct {
		username  string
		email     string
		firstName string
		lastName  string
		role      string
	}{
		{"student_1", "student1@example.com", "Ivan", "Petrov", m.RoleStudent},
		{"student_2", "student2@example.com", "Anna", "Sokolova", m.RoleStudent},
		{"teacher_1", "teacher1@example.com", "Olga", "Ivanova", m.RoleTeacher},
		{"teacher_2", "teacher2@example.com", "Pavel", "Smirnov", m.RoleTeacher},
	}

	users := make([]m.User, 0, len(userSpecs))
	for _, s := range userSpecs {
		users = append(users, m.User{
			Username:  s.username,
			Email:     s.email,
			FirstName: s.firstName,
			LastName:  s.lastName,
			Role:      s.role,
			Password:  hashedPwd,
		})
	}

	if err := db.Create(&users).Error; err != nil {
		return err
	}

	for _, u := range users {
		switch u.Username {
		case "student_1":
			TestStudent1 = u
		case "student_2":
			TestStudent2 = u
		case "teacher_1":
			TestTeacher1 = u
		case "teacher_2":
			TestTeacher2 = u
		}
	}

	categories := []m.Category{
		{Name: "Backend"},
		{Name: "Data"},
	}
	if err := db.Create(&categories).Error; err != nil {
		return err
	}
	TestCategoryBackend = categories[0]
	TestCategoryData = categories[1]

	inactive := false
	vacancies := []m.Vacancy{
		{
			Title:         "Backend Intern",
			Company:       "TechNova",
			Description:   "Work on Go services and the database layer.",
			PublishedByID: &TestTeacher1.ID,
			Categories:    []m.Category{TestCategoryBackend},
			Active:        true,
		},
		{
			Title:         "Data Analyst Intern",
			Company:       "DataForge",
			Description:   "Support data cleansing and dashboard creation.",
			PublishedByID: &TestTeacher2.ID,
			Categories:    []m.Category{TestCategoryData},
			Active:        true,
		},
		{
			Title:         "Archived Posting",
			Company:       "TechNova",
			Description:   "Closed internship from last term.",
			PublishedByID: &TestTeacher1.ID,
			Active:        inactive,
		},
	}
	if err := db.Create(&vacancies).Error; err != nil {
		return err
	}
	TestVacancy1 = vacancies[0]
	TestVacancy2 = vacancies[1]
	TestVacancy3 = vacancies[2]

	return nil
}

// loadTestData populates exported variables when records already exist.
func loadTestData(db *Service) error {
	var users []m.User
	if err := db.Where("username IN ?", []string{
		"student_1", "student_2", "teacher_1", "teacher_2",
	}).Find(&users).Error; err != nil {
		return err
	}
	for _, u := range users {
		switch u.Username {
		case "student_1":
			TestStudent1 = u
		case "student_2":
			TestStudent2 = u
		case "teacher_1":
			TestTeacher1 = u
		case "teacher_2":
			TestTeacher2 = u
		}
	}

	_ = db.First(&TestCategoryBackend, "name = ?", "Backend").Error
	_ = db.First(&TestCategoryData, "name = ?", "Data").Error

	var vacancies []m.Vacancy
	if err := db.Order("id ASC").Limit(3).Find(&vacancies).Error; err == nil {
		if len(vacancies) > 0 {
			TestVacancy1 = vacancies[0]
		}
		if len(vacancies) > 1 {
			TestVacancy2 = vacancies[1]
		}
		if len(vacancies) > 2 {
			TestVacancy3 = vacancies[2]
		}
	}

	return nil
}
