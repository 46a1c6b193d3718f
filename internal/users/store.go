// package users keeps a directory of everyone who talked to the bot,
// with a ban flag the handlers check before doing any work.
package users

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User is one bot user. LastSeen updates on every interaction.
type User struct {
	ID        int64  `gorm:"primaryKey"`
	Username  string `gorm:"size:64"`
	FirstName string `gorm:"size:128"`
	Banned    bool   `gorm:"default:false;index"`
	CreatedAt time.Time
	LastSeen  time.Time
}

// Store persists users. A nil Store is valid and remembers nothing,
// which keeps the bot usable without a database.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Record upserts the user and refreshes LastSeen. The ban flag is never
// touched here so a banned user cannot unban themselves by writing again.
func (s *Store) Record(ctx context.Context, id int64, username, firstName string) error {
	if s == nil {
		return nil
	}

	user := User{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		LastSeen:  time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_seen"}),
	}).Create(&user).Error
}

// Get fetches a user by id. Returns nil, nil when unknown.
func (s *Store) Get(ctx context.Context, id int64) (*User, error) {
	if s == nil {
		return nil, nil
	}

	var user User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IsBanned reports whether the user is banned. Unknown users are not.
// Lookup errors fail open so a database hiccup does not lock everyone out.
func (s *Store) IsBanned(ctx context.Context, id int64) bool {
	user, err := s.Get(ctx, id)
	if err != nil || user == nil {
		return false
	}
	return user.Banned
}

// SetBanned flips the ban flag for a user.
func (s *Store) SetBanned(ctx context.Context, id int64, banned bool) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("banned", banned).Error
}

// Count returns how many users the bot has seen.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&User{}).Count(&n).Error
	return n, err
}
