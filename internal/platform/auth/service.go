package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
}

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
}

func NewService(db *sql.DB, secret []byte, ttl time.Duration) *Service {
	return &Service{store: NewStore(db), secret: secret, ttl: ttl}
}

func (s *Service) Register(ctx context.Context, username, password string) error {
	exists, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists != nil {
		return ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = s.store.Create(ctx, &Account{
		Username:     username,
		PasswordHash: string(hash),
	})
	if err != nil {
		// races on the UNIQUE key still come back as duplicates
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	acct, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if acct == nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": acct.Username,
		"exp": time.Now().Add(s.ttl).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}
