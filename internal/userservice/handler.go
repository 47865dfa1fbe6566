package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sushihentaime/bloglist/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("invalid username or password")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, secret []byte) *UserService {
	return &UserService{
		m:      newUserModel(db),
		mb:     mb,
		secret: secret,
	}
}

// RegisterUser creates a new user account. When an email address is supplied a
// user.registered event is published so the mail service can send a welcome email.
func (s *UserService) RegisterUser(ctx context.Context, username, name, email, password string) (*User, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validatePassword(v, password)
	validateEmail(v, email)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		Username: username,
		Name:     name,
		Email:    email,
		Blogs:    []OwnedBlog{},
	}

	err := u.Password.set(password)
	if err != nil {
		return nil, err
	}

	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, err
	}

	if u.Email != "" {
		data := struct {
			Email    string
			Username string
			Name     string
		}{
			Email:    u.Email,
			Username: u.Username,
			Name:     u.Name,
		}

		eventData, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}

		err = s.mb.Publish(ctx, eventData, common.UserRegisteredKey, common.UserExchange)
		if err != nil {
			return nil, err
		}
	}

	return &u, nil
}

// LoginUser verifies the credentials and issues a signed bearer token. Lookup
// and password failures collapse into the same error so usernames cannot be
// enumerated through the login endpoint.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*AuthToken, error) {
	v := common.NewValidator()
	v.Check(username != "", "username", "must be provided")
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrAuthenticationFailure
	}

	token, err := signAuthToken(user, s.secret)
	if err != nil {
		return nil, err
	}

	return &AuthToken{
		Token:    token,
		Username: user.Username,
		Name:     user.Name,
	}, nil
}

// AuthenticateToken verifies the token signature and resolves the acting user.
func (s *UserService) AuthenticateToken(ctx context.Context, token string) (*User, error) {
	claims, err := parseAuthToken(token, s.secret)
	if err != nil {
		return nil, err
	}

	user, err := s.m.getUserByID(ctx, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrInvalidToken
		default:
			return nil, err
		}
	}

	return user, nil
}

// ListUsers returns every user with their owned blogs populated.
func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	return s.m.getUsers(ctx)
}

// Reset wipes the user table. Only reachable through the test-only reset route.
func (s *UserService) Reset(ctx context.Context) error {
	return s.m.deleteAllUsers(ctx)
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}
