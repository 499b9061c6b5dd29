package embeds

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partnerbot/backend/internal/display"
	"github.com/partnerbot/backend/internal/models"
	apperrors "github.com/partnerbot/backend/pkg/errors"
)

const org snowflake.ID = 42

var artID = uuid.MustParse("0b7e0d9a-1f44-4c1e-8a4f-6a2d93c1b0aa")

type memStore struct {
	defs []models.EmbedDefinition
}

func (m *memStore) find(name string) int {
	for i, d := range m.defs {
		if d.Name == name {
			return i
		}
	}
	return -1
}

func (m *memStore) Create(_ context.Context, d *models.EmbedDefinition) error {
	if m.find(d.Name) >= 0 {
		return apperrors.NewDuplicateError("embed", "unique_embed_name")
	}
	d.ID = uuid.New()
	d.Sequence = len(m.defs) + 1
	m.defs = append(m.defs, *d)
	return nil
}

func (m *memStore) GetByName(_ context.Context, _ snowflake.ID, name string) (*models.EmbedDefinition, error) {
	i := m.find(name)
	if i < 0 {
		return nil, apperrors.NewNotFoundError("embed", name)
	}
	d := m.defs[i]
	return &d, nil
}

func (m *memStore) ListDefinitions(context.Context, snowflake.ID) ([]models.EmbedDefinition, error) {
	return Renumber(m.defs), nil
}

func (m *memStore) UpdateContent(_ context.Context, _ snowflake.ID, name, body, imageURL string, color *int) error {
	i := m.find(name)
	if i < 0 {
		return apperrors.NewNotFoundError("embed", name)
	}
	m.defs[i].BodyText, m.defs[i].ImageURL, m.defs[i].Color = body, imageURL, color
	return nil
}

func (m *memStore) SetImage(_ context.Context, _ snowflake.ID, name, imageURL string) error {
	i := m.find(name)
	if i < 0 {
		return apperrors.NewNotFoundError("embed", name)
	}
	m.defs[i].ImageURL = imageURL
	return nil
}

func (m *memStore) SetCategory(_ context.Context, _ snowflake.ID, name string, category *uuid.UUID) error {
	i := m.find(name)
	if i < 0 {
		return apperrors.NewNotFoundError("embed", name)
	}
	m.defs[i].CategoryID = category
	return nil
}

func (m *memStore) Delete(_ context.Context, _ snowflake.ID, name string) error {
	i := m.find(name)
	if i < 0 {
		return apperrors.NewNotFoundError("embed", name)
	}
	m.defs = Renumber(append(m.defs[:i], m.defs[i+1:]...))
	return nil
}

func (m *memStore) Reorder(_ context.Context, _ snowflake.ID, names []string) ([]models.EmbedDefinition, error) {
	out, err := Reorder(m.defs, names)
	if err != nil {
		return nil, err
	}
	m.defs = out
	return out, nil
}

type fakeDeps struct {
	refreshes int
	uploads   []string
}

func (f *fakeDeps) GetByName(_ context.Context, _ snowflake.ID, name string) (*models.PartnerCategory, error) {
	if name != "Art" {
		return nil, apperrors.NewNotFoundError("category", name)
	}
	return &models.PartnerCategory{ID: artID, OrganizationID: org, Name: name}, nil
}

func (f *fakeDeps) GetSettings(context.Context, snowflake.ID) (*models.OrganizationSettings, error) {
	return &models.OrganizationSettings{OrganizationID: org}, nil
}

func (f *fakeDeps) Refresh(context.Context, snowflake.ID) (display.Result, error) {
	f.refreshes++
	return display.Result{}, nil
}

func (f *fakeDeps) UploadImage(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, key+" "+contentType)
	return "https://img.example/" + key, nil
}

func text(s string) Content { return Content{BodyText: s} }

func TestCreateAppendsAndBindsCategory(t *testing.T) {
	store, deps := &memStore{}, &fakeDeps{}
	svc := NewService(store, deps, deps, deps, nil)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, org, "intro", "", text("Welcome"))
	require.NoError(t, err)
	d, _, err := svc.Create(ctx, org, "art", "Art", text("Artists"))
	require.NoError(t, err)

	assert.Equal(t, 2, d.Sequence)
	require.NotNil(t, d.CategoryID)
	assert.Equal(t, artID, *d.CategoryID)
	assert.Equal(t, 2, deps.refreshes)

	_, _, err = svc.Create(ctx, org, "music", "Music", text("x"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateValidatesContent(t *testing.T) {
	store, deps := &memStore{}, &fakeDeps{}
	svc := NewService(store, deps, deps, deps, nil)
	bad := 0x1000000

	_, _, err := svc.Create(context.Background(), org, "intro", "", Content{BodyText: "x", Color: &bad})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, _, err = svc.Create(context.Background(), org, "intro", "", Content{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, _, err = svc.Create(context.Background(), org, " ", "", text("x"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, store.defs)
	assert.Zero(t, deps.refreshes)
}

func TestDeleteKeepsSequencesDense(t *testing.T) {
	store, deps := &memStore{}, &fakeDeps{}
	svc := NewService(store, deps, deps, deps, nil)
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c", "d"} {
		_, _, err := svc.Create(ctx, org, n, "", text(n))
		require.NoError(t, err)
	}

	_, err := svc.Delete(ctx, org, "b")
	require.NoError(t, err)

	list, err := svc.List(ctx, org)
	require.NoError(t, err)
	names, seqs := namesAndSequences(list)
	assert.Equal(t, []string{"a", "c", "d"}, names)
	assert.Equal(t, []int{1, 2, 3}, seqs)
}

func TestReorderAndUnbind(t *testing.T) {
	store, deps := &memStore{}, &fakeDeps{}
	svc := NewService(store, deps, deps, deps, nil)
	ctx := context.Background()
	_, _, _ = svc.Create(ctx, org, "a", "Art", text("a"))
	_, _, _ = svc.Create(ctx, org, "b", "", text("b"))

	out, _, err := svc.Reorder(ctx, org, []string{"b", "a"})
	require.NoError(t, err)
	names, _ := namesAndSequences(out)
	assert.Equal(t, []string{"b", "a"}, names)

	_, err = svc.SetCategory(ctx, org, "a", "")
	require.NoError(t, err)
	d, err := store.GetByName(ctx, org, "a")
	require.NoError(t, err)
	assert.Nil(t, d.CategoryID)
}

func TestUploadImage(t *testing.T) {
	store, deps := &memStore{}, &fakeDeps{}
	ctx := context.Background()

	disabled := NewService(store, deps, deps, deps, nil)
	_, _, err := disabled.UploadImage(ctx, org, "a", "x.png", "image/png", strings.NewReader("png"), 3)
	assert.True(t, errors.Is(err, ErrImagesDisabled))

	svc := NewService(store, deps, deps, deps, deps)
	_, _, err = svc.Create(ctx, org, "a", "", text("a"))
	require.NoError(t, err)

	_, _, err = svc.UploadImage(ctx, org, "a", "notes.txt", "text/plain", strings.NewReader("hi"), 2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	url, _, err := svc.UploadImage(ctx, org, "a", "banner.png", "", strings.NewReader("png"), 3)
	require.NoError(t, err)
	require.Len(t, deps.uploads, 1)
	assert.Contains(t, deps.uploads[0], "image/png")
	d, _ := store.GetByName(ctx, org, "a")
	assert.Equal(t, url, d.ImageURL)
}

func TestUpdateMergesPatch(t *testing.T) {
	store, deps := &memStore{}, &fakeDeps{}
	svc := NewService(store, deps, deps, deps, nil)
	ctx := context.Background()
	red := 0xFF0000
	_, _, err := svc.Create(ctx, org, "a", "", Content{BodyText: "old", ImageURL: "https://img.example/a.png", Color: &red})
	require.NoError(t, err)
	before := deps.refreshes

	body, art := "new", "Art"
	_, err = svc.Update(ctx, org, "a", Patch{BodyText: &body, ClearColor: true, Category: &art})
	require.NoError(t, err)

	d, err := store.GetByName(ctx, org, "a")
	require.NoError(t, err)
	assert.Equal(t, "new", d.BodyText)
	assert.Equal(t, "https://img.example/a.png", d.ImageURL)
	assert.Nil(t, d.Color)
	require.NotNil(t, d.CategoryID)
	assert.Equal(t, artID, *d.CategoryID)
	assert.Equal(t, before+1, deps.refreshes)

	_, err = svc.Update(ctx, org, "a", Patch{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	empty, noImage := "", ""
	_, err = svc.Update(ctx, org, "a", Patch{BodyText: &empty, ImageURL: &noImage})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = svc.Update(ctx, org, "missing", Patch{BodyText: &body})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
