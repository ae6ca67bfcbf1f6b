// Command-line tool that bootstraps a teacher account with generated
// credentials, for setting up a fresh deployment before any teacher has
// registered through the API.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/strhzy/vacancyhunter/internal/database"
	"github.com/strhzy/vacancyhunter/internal/model"
)

// generateRandomString creates a random hex string of length n
func generateRandomString(n int) string {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal(err)
	}
	return hex.EncodeToString(bytes)
}

// generateUniqueUsername tries until a unique username is found
func generateUniqueUsername(db *gorm.DB) string {
	for {
		username := "teacher_" + generateRandomString(4)
		var count int64
		db.Model(&model.User{}).Where("username = ?", username).Count(&count)
		if count == 0 {
			return username
		}
	}
}

func main() {
	db, err := database.GetMainDB()
	if err != nil {
		log.Fatalf("Database failed to initialize: %v", err)
	}

	username := generateUniqueUsername(db.DB)
	password := generateRandomString(8)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("failed to hash password: ", err)
	}

	teacher := model.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.invalid", username),
		Password: string(hashedPassword),
		Role:     model.RoleTeacher,
	}
	if err := db.Create(&teacher).Error; err != nil {
		log.Fatal("failed to create teacher: ", err)
	}

	fmt.Println("Teacher credentials generated successfully!")
	fmt.Println("======================================")
	fmt.Printf("Username: %s\n", teacher.Username)
	fmt.Printf("Password: %s\n", password)
	fmt.Println("======================================")

	os.Exit(0)
}
