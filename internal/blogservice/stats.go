package blogservice

// Aggregation over a blog list. These functions are pure and hold no shared
// state, so they are safe to call from concurrent request handlers.

// AuthorBlogCount pairs an author with the number of blogs they wrote.
type AuthorBlogCount struct {
	Author string `json:"author"`
	Blogs  int    `json:"blogs"`
}

// AuthorLikeCount pairs an author with their summed likes.
type AuthorLikeCount struct {
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

// Stats bundles every aggregate for the stats endpoint.
type Stats struct {
	TotalLikes   int              `json:"total_likes"`
	FavoriteBlog *Blog            `json:"favorite_blog,omitempty"`
	MostBlogs    *AuthorBlogCount `json:"most_blogs,omitempty"`
	MostLikes    *AuthorLikeCount `json:"most_likes,omitempty"`
}

// TotalLikes sums the likes across all blogs. An empty list sums to zero.
func TotalLikes(blogs []Blog) int {
	var total int
	for _, b := range blogs {
		total += b.Likes
	}
	return total
}

// FavoriteBlog returns the blog with the most likes, or nil for an empty list.
// On ties the last maximal blog in input order wins.
func FavoriteBlog(blogs []Blog) *Blog {
	if len(blogs) == 0 {
		return nil
	}

	favorite := blogs[0]
	for _, b := range blogs[1:] {
		if b.Likes >= favorite.Likes {
			favorite = b
		}
	}
	return &favorite
}

// MostBlogs returns the author with the highest post count, or nil for an
// empty list. On ties the author seen first in input order wins.
func MostBlogs(blogs []Blog) *AuthorBlogCount {
	if len(blogs) == 0 {
		return nil
	}

	counts := map[string]int{}
	var order []string
	for _, b := range blogs {
		if _, seen := counts[b.Author]; !seen {
			order = append(order, b.Author)
		}
		counts[b.Author]++
	}

	most := AuthorBlogCount{Author: order[0], Blogs: counts[order[0]]}
	for _, author := range order[1:] {
		if counts[author] > most.Blogs {
			most = AuthorBlogCount{Author: author, Blogs: counts[author]}
		}
	}
	return &most
}

// MostLikes returns the author with the highest summed likes, or nil for an
// empty list. On ties the author seen first in input order wins.
func MostLikes(blogs []Blog) *AuthorLikeCount {
	if len(blogs) == 0 {
		return nil
	}

	likes := map[string]int{}
	var order []string
	for _, b := range blogs {
		if _, seen := likes[b.Author]; !seen {
			order = append(order, b.Author)
		}
		likes[b.Author] += b.Likes
	}

	most := AuthorLikeCount{Author: order[0], Likes: likes[order[0]]}
	for _, author := range order[1:] {
		if likes[author] > most.Likes {
			most = AuthorLikeCount{Author: author, Likes: likes[author]}
		}
	}
	return &most
}
