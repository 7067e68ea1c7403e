package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
)

type oapRepoStub struct {
	items   []*models.OAP
	created []*models.OAP
	deleted []string
}

func (s *oapRepoStub) List(ctx context.Context, filter models.OAPFilter) ([]models.OAP, int, error) {
	out := make([]models.OAP, 0, len(s.items))
	for _, o := range s.items {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (s *oapRepoStub) FindByID(ctx context.Context, idOrSlug string) (*models.OAP, error) {
	for _, o := range s.items {
		if o.ID == idOrSlug || o.Slug == idOrSlug {
			clone := *o
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *oapRepoStub) Create(ctx context.Context, oap *models.OAP) error {
	oap.ID = "oap-new"
	s.created = append(s.created, oap)
	return nil
}

func (s *oapRepoStub) Update(ctx context.Context, oap *models.OAP) error { return nil }

func (s *oapRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestOAPServiceCreate(t *testing.T) {
	repo := &oapRepoStub{}
	svc := NewOAPService(repo, nil, nil, nil)

	oap, err := svc.Create(context.Background(), OAPRequest{Name: "DJ Kemi Adé", Instagram: "@kemi", Twitter: "kemi_fm"})
	require.NoError(t, err)
	assert.Equal(t, "dj-kemi-ade", oap.Slug)
	assert.Equal(t, "kemi", oap.Instagram)
	assert.Equal(t, "kemi_fm", oap.Twitter)
	require.Len(t, repo.created, 1)
}

func TestOAPServiceCreateConflict(t *testing.T) {
	repo := &oapRepoStub{items: []*models.OAP{{ID: "oap-1", Name: "DJ Kemi", Slug: "dj-kemi"}}}
	svc := NewOAPService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), OAPRequest{Name: "DJ Kemi"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestOAPServiceUpdateSameNameAllowed(t *testing.T) {
	repo := &oapRepoStub{items: []*models.OAP{{ID: "oap-1", Name: "DJ Kemi", Slug: "dj-kemi"}}}
	svc := NewOAPService(repo, nil, nil, nil)

	oap, err := svc.Update(context.Background(), "oap-1", OAPRequest{Name: "DJ Kemi", Bio: "Mornings"})
	require.NoError(t, err)
	assert.Equal(t, "Mornings", oap.Bio)
}

func TestOAPServiceValidation(t *testing.T) {
	svc := NewOAPService(&oapRepoStub{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), OAPRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOAPServiceDeleteBySlug(t *testing.T) {
	repo := &oapRepoStub{items: []*models.OAP{{ID: "oap-1", Slug: "dj-kemi"}}}
	svc := NewOAPService(repo, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "dj-kemi"))
	assert.Equal(t, []string{"oap-1"}, repo.deleted)

	err := svc.Delete(context.Background(), "nobody")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestOAPServiceSlugIsURLSafe(t *testing.T) {
	repo := &oapRepoStub{}
	svc := NewOAPService(repo, nil, nil, nil)

	oap, err := svc.Create(context.Background(), OAPRequest{Name: "MC Ace/Deuce_%"})
	require.NoError(t, err)
	assert.Equal(t, "mc-ace-deuce", oap.Slug)

	_, err = svc.Create(context.Background(), OAPRequest{Name: "***"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
