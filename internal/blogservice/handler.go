package blogservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/bloglist/internal/common"
)

func NewBlogService(db *sql.DB, c *common.Cache) *BlogService {
	return &BlogService{m: newBlogModel(db), c: c}
}

type CreateBlogRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  *int   `json:"likes"`
	UserID int    `json:"-"`
}

// CreateBlog persists a new blog owned by the acting user. Likes defaults to
// zero when the field was omitted from the request.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest) (*Blog, error) {
	likes := 0
	if req.Likes != nil {
		likes = *req.Likes
	}

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateURL(v, req.URL)
	validateLikes(v, likes)
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog := Blog{
		Title:  req.Title,
		Author: req.Author,
		URL:    req.URL,
		Likes:  likes,
		User:   &Owner{ID: req.UserID},
	}

	err := s.m.insert(ctx, &blog)
	if err != nil {
		return nil, err
	}

	s.invalidateLists()

	return s.m.getBlogByID(ctx, blog.ID)
}

// GetBlogs returns every blog with its owner populated.
func (s *BlogService) GetBlogs(ctx context.Context) ([]Blog, error) {
	if cached, ok := s.c.Get(common.CacheKeyBlogList()); ok {
		return cached.([]Blog), nil
	}

	blogs, err := s.m.getBlogs(ctx)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyBlogList(), blogs)

	return blogs, nil
}

// GetBlogByID returns a single blog by its ID.
func (s *BlogService) GetBlogByID(ctx context.Context, id int) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if cached, ok := s.c.Get(common.CacheKeyBlog(id)); ok {
		return cached.(*Blog), nil
	}

	blog, err := s.m.getBlogByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyBlog(id), blog)

	return blog, nil
}

type UpdateBlogRequest struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	URL    *string `json:"url"`
	Likes  *int    `json:"likes"`
}

// UpdateBlog applies a partial update to a blog. Only the owner may update it.
func (s *BlogService) UpdateBlog(ctx context.Context, userID, blogID int, req *UpdateBlogRequest) (*Blog, error) {
	blog, err := s.m.getBlogByID(ctx, blogID)
	if err != nil {
		return nil, err
	}

	if blog.User == nil || blog.User.ID != userID {
		return nil, ErrNotPermitted
	}

	if req.Title != nil {
		blog.Title = *req.Title
	}
	if req.Author != nil {
		blog.Author = *req.Author
	}
	if req.URL != nil {
		blog.URL = *req.URL
	}
	if req.Likes != nil {
		blog.Likes = *req.Likes
	}

	v := common.NewValidator()
	validateTitle(v, blog.Title)
	validateURL(v, blog.URL)
	validateLikes(v, blog.Likes)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	err = s.m.updateBlog(ctx, blog)
	if err != nil {
		return nil, err
	}

	s.invalidateLists()
	s.c.Delete(common.CacheKeyBlog(blogID))

	return blog, nil
}

// DeleteBlog removes a blog. Only the owner may delete it.
func (s *BlogService) DeleteBlog(ctx context.Context, userID, blogID int) error {
	blog, err := s.m.getBlogByID(ctx, blogID)
	if err != nil {
		return err
	}

	if blog.User == nil || blog.User.ID != userID {
		return ErrNotPermitted
	}

	err = s.m.deleteBlog(ctx, blogID)
	if err != nil {
		return err
	}

	s.invalidateLists()
	s.c.Delete(common.CacheKeyBlog(blogID))

	return nil
}

// BlogStats computes the aggregate statistics over the whole collection.
func (s *BlogService) BlogStats(ctx context.Context) (*Stats, error) {
	if cached, ok := s.c.Get(common.CacheKeyBlogStats()); ok {
		return cached.(*Stats), nil
	}

	blogs, err := s.m.getBlogs(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalLikes:   TotalLikes(blogs),
		FavoriteBlog: FavoriteBlog(blogs),
		MostBlogs:    MostBlogs(blogs),
		MostLikes:    MostLikes(blogs),
	}

	s.c.Set(common.CacheKeyBlogStats(), stats)

	return stats, nil
}

// Reset wipes the blog table. Only reachable through the test-only reset route.
func (s *BlogService) Reset(ctx context.Context) error {
	err := s.m.deleteAllBlogs(ctx)
	if err != nil {
		return err
	}

	s.c.Flush()

	return nil
}

func (s *BlogService) invalidateLists() {
	s.c.Delete(common.CacheKeyBlogList())
	s.c.Delete(common.CacheKeyBlogStats())
}
