// Package testutil sets up throwaway databases for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"timetrack-invoicing-backend/internal/models"
)

// Password is the plain text password of every seeded user.
const Password = "secret123"

// NewDB returns a migrated in-memory sqlite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// Fixture is a project with an owner, a member and a client.
type Fixture struct {
	Owner      models.User
	Member     models.User
	ClientUser models.User
	Outsider   models.User

	Project        models.Project
	OwnerContract  models.ProjectContract
	MemberContract models.ProjectContract
	ClientContract models.ProjectContract
	Client         models.Client
}

// ContractStart is when every seeded contract becomes active.
var ContractStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Seed creates the users, project, contracts and client of a Fixture.
// Owner bills 50/h and is paid 50/h; the member bills 40/h and is paid 25/h.
func Seed(t testing.TB, db *gorm.DB) Fixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	f := Fixture{
		Owner:      models.User{Email: "owner@example.com", FirstName: "Olivia", LastName: "Owner", HashedPassword: hash},
		Member:     models.User{Email: "member@example.com", FirstName: "Max", LastName: "Member", HashedPassword: hash},
		ClientUser: models.User{Email: "client@example.com", FirstName: "Carla", LastName: "Client", HashedPassword: hash},
		Outsider:   models.User{Email: "outsider@example.com", FirstName: "Otto", HashedPassword: hash},
	}
	for _, u := range []*models.User{&f.Owner, &f.Member, &f.ClientUser, &f.Outsider} {
		mustCreate(t, db, u)
	}

	f.Project = models.Project{
		Name:           "Website",
		OwnerID:        f.Owner.ID,
		ClientFullName: "ACME Corp",
		ClientEmail:    "billing@acme.example",
	}
	mustCreate(t, db, &f.Project)

	f.OwnerContract = contract(f.Project.ID, f.Owner, models.RoleOwner, "50", "50")
	f.MemberContract = contract(f.Project.ID, f.Member, models.RoleMember, "40", "25")
	f.ClientContract = contract(f.Project.ID, f.ClientUser, models.RoleClient, "0", "0")
	for _, c := range []*models.ProjectContract{&f.OwnerContract, &f.MemberContract, &f.ClientContract} {
		if err := db.Omit("User").Create(c).Error; err != nil {
			t.Fatalf("create contract: %v", err)
		}
	}

	f.Client = models.Client{
		UserID:    f.Owner.ID,
		FirstName: "ACME",
		LastName:  "Corp",
		Email:     "billing@acme.example",
		Address:   "1 Main St",
	}
	mustCreate(t, db, &f.Client)
	return f
}

// LogTrack inserts a track of hours starting at from under contract c.
func LogTrack(t testing.TB, db *gorm.DB, c models.ProjectContract, description string, from time.Time, hours float64) models.ActivityTrack {
	t.Helper()

	track := models.ActivityTrack{
		ProjectContractID: c.ID,
		Description:       description,
		From:              from,
		To:                from.Add(time.Duration(hours * float64(time.Hour))),
	}
	track.SetRatesFromContract(c)
	if err := db.Omit("ProjectContract").Create(&track).Error; err != nil {
		t.Fatalf("create track: %v", err)
	}
	return track
}

func contract(projectID uuid.UUID, u models.User, role, projectRate, userRate string) models.ProjectContract {
	return models.ProjectContract{
		ProjectID:   projectID,
		UserID:      u.ID,
		User:        u,
		Role:        role,
		ProjectRate: decimal.RequireFromString(projectRate),
		UserRate:    decimal.RequireFromString(userRate),
		ActiveFrom:  ContractStart,
	}
}

func mustCreate(t testing.TB, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}
