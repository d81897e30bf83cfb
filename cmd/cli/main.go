package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/satonic/auction-api/internal/config"
	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/services"
	"github.com/satonic/auction-api/internal/store"
)

const usage = "expected 'migrate', 'add-user', 'add-category' or 'issue-token' subcommand"

func main() {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	addUserCmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	email := addUserCmd.String("email", "", "Email for the new user")
	password := addUserCmd.String("password", "", "Password for the new user")
	nickname := addUserCmd.String("nickname", "", "Nickname for the new user")
	admin := addUserCmd.Bool("admin", false, "Grant the admin role")

	addCategoryCmd := flag.NewFlagSet("add-category", flag.ExitOnError)
	categoryName := addCategoryCmd.String("name", "", "Name of the new category")

	issueTokenCmd := flag.NewFlagSet("issue-token", flag.ExitOnError)
	userID := issueTokenCmd.Int64("user-id", 0, "ID of the user to issue a token for")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		db := openDatabase(loadConfig())
		db.Close()
		fmt.Println("Migrations applied.")
	case "add-user":
		addUserCmd.Parse(os.Args[2:])
		if *email == "" || *password == "" || *nickname == "" {
			fmt.Println("email, password and nickname are required")
			addUserCmd.PrintDefaults()
			os.Exit(1)
		}
		role := models.RoleUser
		if *admin {
			role = models.RoleAdmin
		}
		createUser(*email, *password, *nickname, role)
	case "add-category":
		addCategoryCmd.Parse(os.Args[2:])
		if *categoryName == "" {
			fmt.Println("name is required")
			addCategoryCmd.PrintDefaults()
			os.Exit(1)
		}
		createCategory(*categoryName)
	case "issue-token":
		issueTokenCmd.Parse(os.Args[2:])
		if *userID <= 0 {
			fmt.Println("user-id is required")
			issueTokenCmd.PrintDefaults()
			os.Exit(1)
		}
		issueToken(*userID)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

// openDatabase connects and migrates, so the CLI can run before the server
func openDatabase(cfg *config.Config) *store.Database {
	db, err := store.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func createUser(email, password, nickname string, role models.Role) {
	cfg := loadConfig()
	db := openDatabase(cfg)
	defer db.Close()

	auth := services.NewAuthService(store.NewUserRepository(db), cfg.Auth, nil)
	user, err := auth.CreateUser(context.Background(), email, password, nickname, role)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User '%s' created with id %d and role %s.\n", user.Email, user.ID, user.Role)
}

// createCategory bypasses the admin check so the first categories can be
// seeded before any admin exists
func createCategory(name string) {
	db := openDatabase(loadConfig())
	defer db.Close()

	catalog := services.NewCategoryService(store.NewCategoryRepository(db), nil)
	category, err := catalog.Create(context.Background(), models.Actor{Role: models.RoleAdmin}, models.CategoryRequest{Name: name})
	if err != nil {
		log.Fatalf("Failed to create category: %v", err)
	}

	fmt.Printf("Category '%s' created with id %d.\n", category.Name, category.ID)
}

func issueToken(id int64) {
	cfg := loadConfig()
	db := openDatabase(cfg)
	defer db.Close()

	users := store.NewUserRepository(db)
	user, err := users.GetUser(context.Background(), id)
	if err != nil {
		log.Fatalf("Failed to load user: %v", err)
	}
	if user == nil {
		log.Fatalf("User %d not found", id)
	}

	token, err := services.NewAuthService(users, cfg.Auth, nil).IssueTokens(user)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token.AccessToken)
}
