// Package store persists player accounts in SQLite and appends finished
// match records to a JSON-lines stats log.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken indicates the username already has an account.
	ErrUsernameTaken = errors.New("store: username taken")

	// ErrNotFound indicates no account exists for the username.
	ErrNotFound = errors.New("store: user not found")

	// ErrInvalidCredentials indicates the password did not match.
	ErrInvalidCredentials = errors.New("store: invalid credentials")
)

// New accounts start with these values; they also stand in as the profile
// for identities that have no row, such as bots.
const (
	DefaultMoney    = 500
	DefaultDiamonds = 10
	DefaultIcon     = "default.png"
)

// BotPrefix marks built-in bot identities. Bots never touch the store.
const BotPrefix = "Bot_"

// IsBot reports whether username names a built-in bot.
func IsBot(username string) bool {
	return strings.HasPrefix(username, BotPrefix)
}

// Profile is the public slice of a player row, safe to send to opponents.
type Profile struct {
	Username string `json:"username"`
	Elo      int    `json:"elo"`
	Money    int    `json:"money"`
	Diamonds int    `json:"diamonds"`
	Icon     string `json:"icon"`
}

// DefaultProfile returns the profile shown for an identity with no row.
func DefaultProfile(username string) *Profile {
	return &Profile{
		Username: username,
		Elo:      0,
		Money:    DefaultMoney,
		Diamonds: DefaultDiamonds,
		Icon:     DefaultIcon,
	}
}

// Store wraps the SQLite users table.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (creating if necessary) the SQLite database at path.
func Open(path string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger.WithPrefix("store")}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			reg_date TEXT NOT NULL,
			elo INTEGER NOT NULL DEFAULT 0,
			money INTEGER NOT NULL DEFAULT 500,
			diamonds INTEGER NOT NULL DEFAULT 10,
			icon TEXT NOT NULL DEFAULT 'default.png'
		)
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Register creates an account with a bcrypt-hashed password and returns the
// fresh profile. Username comparison is case-insensitive.
func (s *Store) Register(username, password string) (*Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin register: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRow("SELECT 1 FROM users WHERE username = ?", username).Scan(&exists)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	regDate := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`
		INSERT INTO users (username, password_hash, reg_date)
		VALUES (?, ?, ?)
	`, username, string(hash), regDate)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit register: %w", err)
	}

	s.logger.Info("registered user", "username", username)
	return DefaultProfile(username), nil
}

// Authenticate verifies the password and returns the stored profile.
func (s *Store) Authenticate(username, password string) (*Profile, error) {
	var hash string
	p := &Profile{}
	err := s.db.QueryRow(`
		SELECT username, password_hash, elo, money, diamonds, icon
		FROM users WHERE username = ?
	`, username).Scan(&p.Username, &hash, &p.Elo, &p.Money, &p.Diamonds, &p.Icon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

// PlayerData returns the public profile for username. Identities without a
// row, bots included, get the default profile; only a database failure
// returns an error.
func (s *Store) PlayerData(username string) (*Profile, error) {
	if IsBot(username) {
		return DefaultProfile(username), nil
	}

	p := &Profile{}
	err := s.db.QueryRow(`
		SELECT username, elo, money, diamonds, icon
		FROM users WHERE username = ?
	`, username).Scan(&p.Username, &p.Elo, &p.Money, &p.Diamonds, &p.Icon)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultProfile(username), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// ApplyMatchResult adjusts a player's elo and money after a game. Elo never
// drops below zero. Bot identities are skipped.
func (s *Store) ApplyMatchResult(username string, eloDelta, moneyDelta int) error {
	if IsBot(username) {
		return nil
	}
	_, err := s.db.Exec(`
		UPDATE users SET elo = MAX(0, elo + ?), money = money + ?
		WHERE username = ?
	`, eloDelta, moneyDelta, username)
	if err != nil {
		return fmt.Errorf("apply match result: %w", err)
	}
	return nil
}
