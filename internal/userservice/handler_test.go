package userservice

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/bloglist/internal/common"
)

func setupTestEnvironment(t *testing.T) (*UserService, *sql.DB, func() error, error) {
	db := common.TestDB("file://../../migrations", t)

	connURL := common.TestRabbitMQ(t)
	mb, err := common.NewMessageBroker(connURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not create message broker: %w", err)
	}

	err = common.SetupUserExchange(mb)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not setup user exchange: %w", err)
	}

	cleanup := func() error {
		_, err := db.Exec("DELETE FROM users")
		return err
	}

	return NewUserService(db, mb, []byte("test-signing-secret")), db, cleanup, nil
}

func TestRegisterUser(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	testCases := []struct {
		name        string
		username    string
		displayName string
		email       string
		password    string
		expectedErr error
	}{
		{
			name:        "valid user",
			username:    "mluukkai",
			displayName: "Matti Luukkainen",
			password:    "salainen",
		},
		{
			name:        "valid user with email",
			username:    "hellas",
			displayName: "Arto Hellas",
			email:       "arto.hellas@example.com",
			password:    "salainen",
		},
		{
			name:        "username too short",
			username:    "ml",
			password:    "salainen",
			expectedErr: common.ValidationError{Errors: map[string]string{"username": "must be between 3 and 50 characters long"}},
		},
		{
			name:        "password too short",
			username:    "mluukkai2",
			password:    "sa",
			expectedErr: common.ValidationError{Errors: map[string]string{"password": "must be between 3 and 72 characters long"}},
		},
		{
			name:        "missing username",
			password:    "salainen",
			expectedErr: common.ValidationError{Errors: map[string]string{"username": "must be provided"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := s.RegisterUser(context.Background(), tc.username, tc.displayName, tc.email, tc.password)
			if tc.expectedErr != nil {
				assert.EqualError(t, err, tc.expectedErr.Error())
				return
			}

			assert.NoError(t, err)
			assert.NotZero(t, u.ID)
			assert.Equal(t, tc.username, u.Username)
		})
	}

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})
}

func TestRegisterUserDuplicateUsername(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	_, err = s.RegisterUser(context.Background(), "mluukkai", "", "", "salainen")
	assert.NoError(t, err)

	_, err = s.RegisterUser(context.Background(), "mluukkai", "", "", "salainen")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})
}

func TestLoginUser(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	_, err = s.RegisterUser(context.Background(), "mluukkai", "Matti Luukkainen", "", "salainen")
	assert.NoError(t, err)

	testCases := []struct {
		name        string
		username    string
		password    string
		expectedErr error
	}{
		{
			name:     "valid credentials",
			username: "mluukkai",
			password: "salainen",
		},
		{
			name:        "wrong password",
			username:    "mluukkai",
			password:    "wrong",
			expectedErr: ErrAuthenticationFailure,
		},
		{
			name:        "unknown user",
			username:    "nosuchuser",
			password:    "salainen",
			expectedErr: ErrAuthenticationFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := s.LoginUser(context.Background(), tc.username, tc.password)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, token.Token)
			assert.Equal(t, "mluukkai", token.Username)
			assert.Equal(t, "Matti Luukkainen", token.Name)
		})
	}

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})
}

func TestAuthenticateToken(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	registered, err := s.RegisterUser(context.Background(), "mluukkai", "", "", "salainen")
	assert.NoError(t, err)

	token, err := s.LoginUser(context.Background(), "mluukkai", "salainen")
	assert.NoError(t, err)

	user, err := s.AuthenticateToken(context.Background(), token.Token)
	assert.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "mluukkai", user.Username)

	_, err = s.AuthenticateToken(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})
}

func TestListUsersPopulatesBlogs(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	u, err := s.RegisterUser(context.Background(), "mluukkai", "", "", "salainen")
	assert.NoError(t, err)

	_, err = db.Exec("INSERT INTO blogs (title, author, url, likes, user_id) VALUES ($1, $2, $3, $4, $5)", "React patterns", "Michael Chan", "https://reactpatterns.com/", 7, u.ID)
	assert.NoError(t, err)

	users, err := s.ListUsers(context.Background())
	assert.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Len(t, users[0].Blogs, 1)
	assert.Equal(t, "React patterns", users[0].Blogs[0].Title)
	assert.Equal(t, 7, users[0].Blogs[0].Likes)

	t.Cleanup(func() {
		_, err := db.Exec("DELETE FROM blogs")
		assert.NoError(t, err)
		assert.NoError(t, cleanup())
	})
}
