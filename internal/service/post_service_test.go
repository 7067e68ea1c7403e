package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/markdown"
)

type postRepoStub struct {
	posts      map[string]*models.Post
	probed     []string
	created    []*models.Post
	updated    []*models.Post
	lastFilter models.PostFilter
}

func (s *postRepoStub) List(ctx context.Context, filter models.PostFilter) ([]models.Post, int, error) {
	s.lastFilter = filter
	out := []models.Post{}
	for _, p := range s.posts {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (s *postRepoStub) FindByID(ctx context.Context, id string) (*models.Post, error) {
	if p, ok := s.posts[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *postRepoStub) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	for _, p := range s.posts {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *postRepoStub) ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error) {
	s.probed = append(s.probed, slug)
	for id, p := range s.posts {
		if p.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	s.created = append(s.created, post)
	return nil
}

func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	s.updated = append(s.updated, post)
	return nil
}

func (s *postRepoStub) Delete(ctx context.Context, id string) error { return nil }

func newPostServiceForTest(repo *postRepoStub, now time.Time) *PostService {
	svc := NewPostService(repo, markdown.NewRenderer(), nil, nil, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestPostServiceCreateSuffixesDuplicateSlug(t *testing.T) {
	repo := &postRepoStub{posts: map[string]*models.Post{
		"p1": {ID: "p1", Slug: "festival-recap"},
		"p2": {ID: "p2", Slug: "festival-recap-2"},
	}}
	svc := newPostServiceForTest(repo, monday0730)

	post, err := svc.Create(context.Background(), "user-1", PostRequest{Title: "Festival Recap", Body: "# Hi", Published: true})
	require.NoError(t, err)
	assert.Equal(t, "festival-recap-3", post.Slug)
	assert.Equal(t, "user-1", post.AuthorID)
	require.NotNil(t, post.PublishedAt)
	assert.True(t, post.PublishedAt.Equal(monday0730))
}

func TestPostServiceDraftHasNoPublishedAt(t *testing.T) {
	repo := &postRepoStub{posts: map[string]*models.Post{}}
	svc := newPostServiceForTest(repo, monday0730)

	post, err := svc.Create(context.Background(), "user-1", PostRequest{Title: "Draft", Body: "wip"})
	require.NoError(t, err)
	assert.Equal(t, "draft", post.Slug)
	assert.Nil(t, post.PublishedAt)
}

func TestPostServiceUpdateKeepsFirstPublishDate(t *testing.T) {
	first := monday0730.Add(-48 * time.Hour)
	repo := &postRepoStub{posts: map[string]*models.Post{
		"p1": {ID: "p1", Slug: "festival-recap", Published: true, PublishedAt: &first},
	}}
	svc := newPostServiceForTest(repo, monday0730)

	post, err := svc.Update(context.Background(), "p1", PostRequest{Title: "Festival Recap, updated", Body: "more", Published: true})
	require.NoError(t, err)
	assert.Equal(t, "festival-recap", post.Slug)
	assert.True(t, post.PublishedAt.Equal(first))
}

func TestPostServiceGetBySlugRendersMarkdown(t *testing.T) {
	repo := &postRepoStub{posts: map[string]*models.Post{
		"p1": {ID: "p1", Slug: "hello", Body: "**bold**", Published: true},
	}}
	svc := newPostServiceForTest(repo, monday0730)

	post, err := svc.GetBySlug(context.Background(), "hello", false)
	require.NoError(t, err)
	assert.True(t, strings.Contains(post.HTML, "<strong>bold</strong>"))
}

func TestPostServiceHidesDraftsFromPublic(t *testing.T) {
	repo := &postRepoStub{posts: map[string]*models.Post{
		"p1": {ID: "p1", Slug: "secret", Body: "x"},
	}}
	svc := newPostServiceForTest(repo, monday0730)

	_, err := svc.GetBySlug(context.Background(), "secret", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	post, err := svc.GetBySlug(context.Background(), "secret", true)
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
}

func TestPostServiceDeleteMissing(t *testing.T) {
	svc := newPostServiceForTest(&postRepoStub{posts: map[string]*models.Post{}}, monday0730)

	err := svc.Delete(context.Background(), "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPostServiceCreateFindsFreeSuffix(t *testing.T) {
	repo := &postRepoStub{posts: map[string]*models.Post{
		"p1": {ID: "p1", Slug: "rock"},
		"p2": {ID: "p2", Slug: "rock-3"},
	}}
	svc := newPostServiceForTest(repo, monday0730)

	post, err := svc.Create(context.Background(), "user-1", PostRequest{Title: "Rock", Body: "x"})
	require.NoError(t, err)
	assert.Equal(t, "rock-2", post.Slug)
	assert.Equal(t, []string{"rock", "rock-2"}, repo.probed)
}

func TestPostServiceCreateBuildsURLSafeSlug(t *testing.T) {
	repo := &postRepoStub{posts: map[string]*models.Post{}}
	svc := newPostServiceForTest(repo, monday0730)

	post, err := svc.Create(context.Background(), "user-1", PostRequest{Title: "AC/DC Night: 100% Rock_n_Roll", Body: "x", Published: true})
	require.NoError(t, err)
	assert.Equal(t, "ac-dc-night-100-rock-n-roll", post.Slug)

	repo.posts[post.ID] = post
	found, err := svc.GetBySlug(context.Background(), post.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, post.Title, found.Title)

	symbols, err := svc.Create(context.Background(), "user-1", PostRequest{Title: "!!!", Body: "x"})
	require.NoError(t, err)
	assert.Equal(t, "post", symbols.Slug)
}
