package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	"github.com/refferq/refferq/domain/valueobject"
	"github.com/refferq/refferq/infrastructure/adapter/postgres"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

// create_admin bootstraps an ACTIVE administrator. It is the supported way
// to obtain the ADMIN role when registration does not allow it.
func main() {
	emailFlag := flag.String("email", "", "administrator email (required)")
	nameFlag := flag.String("name", "Administrator", "display name")
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()
	log := logger.NewStructuredLogger(logger.LoggerConfig{Level: "info", Format: "text", ServiceName: "refferq-create-admin"})

	email, err := valueobject.NewEmail(*emailFlag)
	if err != nil {
		fatal(ctx, log, "A valid -email is required", err)
	}
	name := strings.TrimSpace(*nameFlag)
	if name == "" {
		fatal(ctx, log, "-name cannot be empty", nil)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fatal(ctx, log, "DATABASE_URL environment variable is required", nil)
	}
	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	db, err := postgres.Open(ctx, driver, dsn)
	if err != nil {
		fatal(ctx, log, "Failed to connect to database", err)
	}
	defer db.Close()

	users := postgres.NewUserRepositoryAdapter(db)

	admin := entity.NewUser(uuid.NewString(), email.String(), name, entity.RoleAdmin, time.Now().UTC())
	admin.Status = entity.StatusActive

	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, outbound.ErrEmailTaken) {
			fatal(ctx, log, "A user with this email already exists", err)
		}
		fatal(ctx, log, "Failed to create admin user", err)
	}

	log.Info(ctx, "Admin user created", map[string]interface{}{
		"id":    admin.ID,
		"email": admin.Email,
	})
}

func fatal(ctx context.Context, log logger.Logger, message string, err error) {
	log.Error(ctx, message, err, nil)
	os.Exit(1)
}
