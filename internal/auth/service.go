package auth

import (
	"context"
	"sync"

	"backend-milestomemories/internal/db"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/shared/validation"
)

var (
	errEmailTaken  = apperr.Validation("Email already registered")
	errBadLogin    = apperr.Unauthorized("Invalid email or password")
	errUserMissing = apperr.NotFound("User not found")
)

type Service struct {
	db     db.Querier
	tokens *Tokens
	cost   int

	dummyOnce sync.Once
	dummyHash string
}

func NewService(q db.Querier, tokens *Tokens, bcryptCost int) *Service {
	return &Service{db: q, tokens: tokens, cost: bcryptCost}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	if err := validation.Check(req, "Email, password, and name are required"); err != nil {
		return Session{}, err
	}

	var existing int64
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, req.Email).Scan(&existing)
	switch {
	case err == nil:
		return Session{}, errEmailTaken
	case !db.IsNoRows(err):
		return Session{}, apperr.Internal("Failed to create user", err)
	}

	hash, err := HashPassword(req.Password, s.cost)
	if err != nil {
		return Session{}, apperr.Internal("Failed to create user", err)
	}

	var user User
	err = s.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, avatar_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, avatar_url
	`, req.Email, hash, req.Name, DefaultAvatarURL).Scan(&user.ID, &user.Email, &user.Name, &user.Avatar)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Session{}, errEmailTaken
		}
		return Session{}, apperr.Internal("Failed to create user", err)
	}

	if _, err := s.db.Exec(ctx, `INSERT INTO user_profiles (user_id) VALUES ($1)`, user.ID); err != nil {
		return Session{}, apperr.Internal("Failed to create user", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, apperr.Internal("Failed to create user", err)
	}
	return Session{Message: "User created successfully", User: user, Token: token}, nil
}

// Login answers the same 401 for an unknown email and a wrong password, and
// pays for a bcrypt comparison in both cases.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	if err := validation.Check(req, "Email and password are required"); err != nil {
		return Session{}, err
	}

	var user User
	var hash string
	err := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, name, avatar_url
		FROM users WHERE email = $1
	`, req.Email).Scan(&user.ID, &user.Email, &hash, &user.Name, &user.Avatar)
	if err != nil {
		if db.IsNoRows(err) {
			CheckPassword(req.Password, s.fallbackHash())
			return Session{}, errBadLogin
		}
		return Session{}, apperr.Internal("Failed to login", err)
	}

	if !CheckPassword(req.Password, hash) {
		return Session{}, errBadLogin
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, apperr.Internal("Failed to login", err)
	}
	return Session{Message: "Login successful", User: user, Token: token}, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (Me, error) {
	me, err := LoadMe(ctx, s.db, userID)
	if err != nil {
		return Me{}, apperr.Wrap(err, "Failed to get user")
	}
	return me, nil
}

// LoadMe reads a user merged with their profile.
func LoadMe(ctx context.Context, q db.Querier, userID int64) (Me, error) {
	var me Me
	err := q.QueryRow(ctx, `
		SELECT u.id, u.email, u.name, u.avatar_url, p.bio, p.location, p.website
		FROM users u
		LEFT JOIN user_profiles p ON u.id = p.user_id
		WHERE u.id = $1
	`, userID).Scan(&me.ID, &me.Email, &me.Name, &me.Avatar, &me.Bio, &me.Location, &me.Website)
	if db.IsNoRows(err) {
		return Me{}, errUserMissing
	}
	return me, err
}

func (s *Service) fallbackHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = HashPassword("miles-to-memories", s.cost)
	})
	return s.dummyHash
}
