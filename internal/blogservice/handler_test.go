package blogservice

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/bloglist/internal/common"
)

// setupTestUser is a helper function to create a test user in the database.
func setupTestUser(db *sql.DB, username string) (*int, error) {
	query := `
		INSERT INTO users (username, name, email, password)
		VALUES ($1, $2, '', 'x')
		RETURNING id`

	var id int
	err := db.QueryRow(query, username, "Test User").Scan(&id)
	if err != nil {
		return nil, err
	}

	return &id, nil
}

func setupTestEnvironment(t *testing.T) (*BlogService, *sql.DB, func() error, *int, error) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	id, err := setupTestUser(db, "testuser")
	if err != nil {
		return nil, nil, nil, nil, err
	}

	cleanup := func() error {
		_, err := db.Exec("DELETE FROM blogs")
		if err != nil {
			return err
		}

		cache.Flush()

		return nil
	}

	return NewBlogService(db, cache), db, cleanup, id, nil
}

func intptr(i int) *int {
	return &i
}

func strptr(s string) *string {
	return &s
}

func TestCreateBlog(t *testing.T) {
	s, _, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	testCases := []struct {
		name        string
		req         *CreateBlogRequest
		wantLikes   int
		expectedErr error
	}{
		{
			name: "valid blog",
			req: &CreateBlogRequest{
				Title:  "React patterns",
				Author: "Michael Chan",
				URL:    "https://reactpatterns.com/",
				Likes:  intptr(7),
				UserID: *userId,
			},
			wantLikes: 7,
		},
		{
			name: "likes omitted defaults to zero",
			req: &CreateBlogRequest{
				Title:  "GitHub",
				Author: "GitHub Inc.",
				URL:    "https://github.com",
				UserID: *userId,
			},
			wantLikes: 0,
		},
		{
			name: "missing title",
			req: &CreateBlogRequest{
				URL:    "https://reactpatterns.com/",
				UserID: *userId,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"title": "must be provided"}},
		},
		{
			name: "missing url",
			req: &CreateBlogRequest{
				Title:  "React patterns",
				UserID: *userId,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"url": "must be provided"}},
		},
		{
			name: "negative likes",
			req: &CreateBlogRequest{
				Title:  "React patterns",
				URL:    "https://reactpatterns.com/",
				Likes:  intptr(-1),
				UserID: *userId,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"likes": "must not be negative"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			blog, err := s.CreateBlog(context.Background(), tc.req)
			if tc.expectedErr != nil {
				assert.EqualError(t, err, tc.expectedErr.Error())
				return
			}

			assert.NoError(t, err)
			assert.NotZero(t, blog.ID)
			assert.Equal(t, tc.wantLikes, blog.Likes)
			assert.NotNil(t, blog.User)
			assert.Equal(t, "testuser", blog.User.Username)
		})
	}

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})
}

func TestCreateBlogUnknownUser(t *testing.T) {
	s, _, cleanup, _, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	_, err = s.CreateBlog(context.Background(), &CreateBlogRequest{
		Title:  "React patterns",
		URL:    "https://reactpatterns.com/",
		UserID: 999999,
	})
	assert.ErrorIs(t, err, ErrUserForeignKey)

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})
}

func TestGetBlogs(t *testing.T) {
	s, _, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	_, err = s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "React patterns", URL: "https://reactpatterns.com/", Likes: intptr(7), UserID: *userId})
	assert.NoError(t, err)
	_, err = s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "GitHub", URL: "https://github.com", Likes: intptr(1), UserID: *userId})
	assert.NoError(t, err)

	blogs, err := s.GetBlogs(context.Background())
	assert.NoError(t, err)
	assert.Len(t, blogs, 2)
	assert.Equal(t, "React patterns", blogs[0].Title)
	assert.NotNil(t, blogs[0].User)
	assert.Equal(t, *userId, blogs[0].User.ID)

	// second call is served from the cache
	cached, err := s.GetBlogs(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, blogs, cached)

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})
}

func TestUpdateBlog(t *testing.T) {
	s, db, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	otherId, err := setupTestUser(db, "otheruser")
	assert.NoError(t, err)

	blog, err := s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "React patterns", URL: "https://reactpatterns.com/", Likes: intptr(7), UserID: *userId})
	assert.NoError(t, err)

	t.Run("owner can bump likes", func(t *testing.T) {
		updated, err := s.UpdateBlog(context.Background(), *userId, blog.ID, &UpdateBlogRequest{Likes: intptr(8)})
		assert.NoError(t, err)
		assert.Equal(t, 8, updated.Likes)
		assert.Equal(t, "React patterns", updated.Title)
	})

	t.Run("owner can rename", func(t *testing.T) {
		updated, err := s.UpdateBlog(context.Background(), *userId, blog.ID, &UpdateBlogRequest{Title: strptr("React patterns v2")})
		assert.NoError(t, err)
		assert.Equal(t, "React patterns v2", updated.Title)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		_, err := s.UpdateBlog(context.Background(), *otherId, blog.ID, &UpdateBlogRequest{Likes: intptr(100)})
		assert.ErrorIs(t, err, ErrNotPermitted)
	})

	t.Run("unknown blog", func(t *testing.T) {
		_, err := s.UpdateBlog(context.Background(), *userId, 999999, &UpdateBlogRequest{Likes: intptr(1)})
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("clearing the title fails validation", func(t *testing.T) {
		_, err := s.UpdateBlog(context.Background(), *userId, blog.ID, &UpdateBlogRequest{Title: strptr("")})
		assert.EqualError(t, err, common.ValidationError{Errors: map[string]string{"title": "must be provided"}}.Error())
	})

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})
}

func TestDeleteBlog(t *testing.T) {
	s, db, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	otherId, err := setupTestUser(db, "otheruser")
	assert.NoError(t, err)

	blog, err := s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "React patterns", URL: "https://reactpatterns.com/", UserID: *userId})
	assert.NoError(t, err)

	t.Run("non-owner is rejected and the blog survives", func(t *testing.T) {
		err := s.DeleteBlog(context.Background(), *otherId, blog.ID)
		assert.ErrorIs(t, err, ErrNotPermitted)

		blogs, err := s.GetBlogs(context.Background())
		assert.NoError(t, err)
		assert.Len(t, blogs, 1)
	})

	t.Run("owner delete removes exactly one blog", func(t *testing.T) {
		err := s.DeleteBlog(context.Background(), *userId, blog.ID)
		assert.NoError(t, err)

		blogs, err := s.GetBlogs(context.Background())
		assert.NoError(t, err)
		assert.Len(t, blogs, 0)
	})

	t.Run("unknown blog", func(t *testing.T) {
		err := s.DeleteBlog(context.Background(), *userId, 999999)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})
}

func TestBlogStats(t *testing.T) {
	s, _, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Run("empty collection", func(t *testing.T) {
		stats, err := s.BlogStats(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 0, stats.TotalLikes)
		assert.Nil(t, stats.FavoriteBlog)
		assert.Nil(t, stats.MostBlogs)
		assert.Nil(t, stats.MostLikes)
	})

	t.Run("populated collection", func(t *testing.T) {
		_, err = s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "React patterns", Author: "Michael Chan", URL: "https://reactpatterns.com/", Likes: intptr(7), UserID: *userId})
		assert.NoError(t, err)
		_, err = s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "Type wars", Author: "Robert C. Martin", URL: "http://blog.cleancoder.com/uncle-bob/2016/05/01/TypeWars.html", Likes: intptr(2), UserID: *userId})
		assert.NoError(t, err)
		_, err = s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "First class tests", Author: "Robert C. Martin", URL: "http://blog.cleancoder.com/uncle-bob/2017/05/05/TestDefinitions.html", Likes: intptr(10), UserID: *userId})
		assert.NoError(t, err)

		stats, err := s.BlogStats(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 19, stats.TotalLikes)
		assert.Equal(t, "First class tests", stats.FavoriteBlog.Title)
		assert.Equal(t, &AuthorBlogCount{Author: "Robert C. Martin", Blogs: 2}, stats.MostBlogs)
		assert.Equal(t, &AuthorLikeCount{Author: "Robert C. Martin", Likes: 12}, stats.MostLikes)
	})

	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})
}
