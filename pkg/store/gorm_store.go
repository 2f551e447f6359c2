package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"lifescript/pkg/domain"
)

// CredentialModel is the credential-list row, one per username.
type CredentialModel struct {
	Username  string    `gorm:"primaryKey"`
	Secret    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// UserRecordModel is the per-user application record. The bookshelf is
// a single JSON payload so every save overwrites the record in full,
// matching the key-value contract of the original storage.
type UserRecordModel struct {
	Username      string `gorm:"primaryKey"`
	ProfilePicURL string
	Books         datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
}

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&CredentialModel{}, &UserRecordModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveCredential stores or replaces the credential for a username.
func (s *GormStore) SaveCredential(c domain.Credential) error {
	model := CredentialModel{Username: c.Username, Secret: c.Secret}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"secret"}),
	}).Create(&model).Error
}

// GetCredential looks up a credential by username.
func (s *GormStore) GetCredential(username string) (domain.Credential, bool, error) {
	var model CredentialModel
	if err := s.db.First(&model, "username = ?", username).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Credential{}, false, nil
		}
		return domain.Credential{}, false, err
	}
	return domain.Credential{Username: model.Username, Secret: model.Secret}, true, nil
}

// HasUsername checks if a credential exists for the username.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&CredentialModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveUserRecord overwrites the full user record.
func (s *GormStore) SaveUserRecord(u domain.User) error {
	books := u.Books
	if books == nil {
		books = []domain.Book{}
	}
	payload, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("marshal books: %w", err)
	}
	model := UserRecordModel{
		Username:      u.Username,
		ProfilePicURL: u.ProfilePicURL,
		Books:         payload,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"profile_pic_url", "books", "updated_at"}),
	}).Create(&model).Error
}

// GetUserRecord returns the user record for a username.
func (s *GormStore) GetUserRecord(username string) (domain.User, bool, error) {
	var model UserRecordModel
	if err := s.db.First(&model, "username = ?", username).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	var books []domain.Book
	if len(model.Books) > 0 {
		if err := json.Unmarshal(model.Books, &books); err != nil {
			return domain.User{}, false, fmt.Errorf("unmarshal books: %w", err)
		}
	}
	return domain.User{
		Username:      model.Username,
		ProfilePicURL: model.ProfilePicURL,
		Books:         books,
	}, true, nil
}
