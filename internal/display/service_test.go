package display

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/internal/platform"
	"github.com/partnerbot/backend/internal/render"
)

type fakeSource struct {
	settings    models.OrganizationSettings
	defs        []models.EmbedDefinition
	partners    []models.Partner
	partnerLoad int
}

func (f *fakeSource) GetSettings(_ context.Context, org snowflake.ID) (*models.OrganizationSettings, error) {
	if org != f.settings.OrganizationID {
		return nil, errors.New("not set up")
	}
	s := f.settings
	return &s, nil
}

func (f *fakeSource) SetDisplayChannel(_ context.Context, _, channel snowflake.ID) error {
	f.settings.DisplayChannel = channel
	return nil
}

func (f *fakeSource) ListDefinitions(context.Context, snowflake.ID) ([]models.EmbedDefinition, error) {
	return f.defs, nil
}

func (f *fakeSource) ListByOrganization(context.Context, snowflake.ID) ([]models.Partner, error) {
	f.partnerLoad++
	return f.partners, nil
}

func newTestService(src *fakeSource, m *fakeMessenger, s *memoryStore) *Service {
	return NewService(src, src, src, NewReconciler(m, s, nil), render.Planner{}, nil)
}

func TestServiceRefreshPublishesPartnerLists(t *testing.T) {
	category := uuid.New()
	src := &fakeSource{
		settings: models.OrganizationSettings{OrganizationID: testOrg, DisplayChannel: testChannel},
		defs: []models.EmbedDefinition{
			{Sequence: 1, Name: "intro", BodyText: "Our partners"},
			{Sequence: 2, Name: "games", CategoryID: &category},
		},
		partners: []models.Partner{
			{CategoryID: category, DisplayName: "Beta", InviteCode: "beta"},
			{CategoryID: category, DisplayName: "Alpha", InviteCode: "alpha"},
			{CategoryID: uuid.New(), DisplayName: "Other", InviteCode: "other"},
		},
	}
	m, s := newFakeMessenger(), &memoryStore{}
	svc := newTestService(src, m, s)

	res, err := svc.Refresh(context.Background(), testOrg)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 1}, res)
	require.Len(t, s.rows, 1)

	blocks := m.live[s.rows[0].MessageID]
	require.Len(t, blocks, 2)
	assert.Equal(t, "Our partners", blocks[0].Description)
	require.Len(t, blocks[1].Fields, 1)
	assert.Equal(t, "- [Alpha](https://discord.gg/alpha)\n- [Beta](https://discord.gg/beta)", blocks[1].Fields[0].Value)
}

func TestServicePlanSkipsPartnerLoadWithoutCategories(t *testing.T) {
	src := &fakeSource{defs: []models.EmbedDefinition{{Sequence: 1, BodyText: "x"}}}
	svc := newTestService(src, newFakeMessenger(), &memoryStore{})

	pages, err := svc.Plan(context.Background(), testOrg)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	assert.Zero(t, src.partnerLoad)
}

func TestServiceMoveChannel(t *testing.T) {
	const newChannel snowflake.ID = 300
	src := &fakeSource{
		settings: models.OrganizationSettings{OrganizationID: testOrg, DisplayChannel: testChannel},
		defs:     []models.EmbedDefinition{{Sequence: 1, BodyText: "a"}},
	}
	m, s := newFakeMessenger(), &memoryStore{}
	seed(m, s, 2)
	svc := newTestService(src, m, s)

	res, err := svc.MoveChannel(context.Background(), testOrg, newChannel)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 1, Deleted: 2}, res)
	assert.Equal(t, []call{
		{op: "delete", channel: testChannel, message: 500},
		{op: "delete", channel: testChannel, message: 501},
		{op: "create", channel: newChannel},
	}, m.calls)
	assert.Equal(t, newChannel, src.settings.DisplayChannel)
	require.Len(t, s.rows, 1)
	assert.Equal(t, newChannel, s.rows[0].ChannelID)
}

func TestServiceMoveChannelKeepsChannelWhenTeardownFails(t *testing.T) {
	src := &fakeSource{settings: models.OrganizationSettings{OrganizationID: testOrg, DisplayChannel: testChannel}}
	m, s := newFakeMessenger(), &memoryStore{}
	seed(m, s, 1)
	m.failOn["delete"] = platform.NewError(platform.KindForbidden, "delete message", nil)
	svc := newTestService(src, m, s)

	_, err := svc.MoveChannel(context.Background(), testOrg, 300)
	require.Error(t, err)
	assert.Equal(t, testChannel, src.settings.DisplayChannel)
	assert.Len(t, s.rows, 1)
}

func TestServiceTeardown(t *testing.T) {
	src := &fakeSource{
		settings: models.OrganizationSettings{OrganizationID: testOrg, DisplayChannel: testChannel},
		defs:     []models.EmbedDefinition{{Sequence: 1, BodyText: "still defined"}},
	}
	m, s := newFakeMessenger(), &memoryStore{}
	seed(m, s, 1)
	svc := newTestService(src, m, s)

	res, err := svc.Teardown(context.Background(), testOrg)
	require.NoError(t, err)
	assert.Equal(t, Result{Deleted: 1}, res)
	assert.Empty(t, s.rows)
}
