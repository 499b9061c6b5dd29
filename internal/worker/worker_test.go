package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/internal/roles"
	apperrors "github.com/partnerbot/backend/pkg/errors"
	"github.com/partnerbot/backend/pkg/queue"
)

func roleID(v snowflake.ID) *snowflake.ID { return &v }

type fakeOrgs struct {
	list []models.OrganizationSettings
}

func (f *fakeOrgs) ListWithRole(context.Context) ([]models.OrganizationSettings, error) {
	return f.list, nil
}

func (f *fakeOrgs) GetSettings(_ context.Context, org snowflake.ID) (*models.OrganizationSettings, error) {
	for _, s := range f.list {
		if s.OrganizationID == org {
			return &s, nil
		}
	}
	return nil, apperrors.ErrNotSetUp
}

type fakeSweeper struct {
	swept []snowflake.ID
	fail  map[snowflake.ID]bool
}

func (f *fakeSweeper) Sweep(_ context.Context, org snowflake.ID, role *snowflake.ID) (roles.Report, error) {
	f.swept = append(f.swept, org)
	rep := roles.Report{OrganizationID: org}
	if role != nil {
		rep.Role = *role
	}
	if f.fail[org] {
		rep.Error = "boom"
		return rep, errors.New("boom")
	}
	return rep, nil
}

type fakeReports struct {
	saved []roles.Report
}

func (f *fakeReports) Save(_ context.Context, rep roles.Report) error {
	f.saved = append(f.saved, rep)
	return nil
}

type fakeJobs struct {
	pending []*queue.Job
	retried []*queue.Job
	onEmpty func()
}

func (f *fakeJobs) Dequeue(context.Context, time.Duration) (*queue.Job, error) {
	if len(f.pending) == 0 {
		if f.onEmpty != nil {
			f.onEmpty()
		}
		return nil, nil
	}
	job := f.pending[0]
	f.pending = f.pending[1:]
	return job, nil
}

func (f *fakeJobs) Retry(_ context.Context, job *queue.Job) error {
	f.retried = append(f.retried, job)
	return nil
}

func sweepJob(t *testing.T, org snowflake.ID) *queue.Job {
	t.Helper()
	body, err := json.Marshal(queue.RoleSweepPayload{OrganizationID: org, Reason: "test"})
	require.NoError(t, err)
	return &queue.Job{ID: "job-" + org.String(), Type: queue.JobTypeRoleSweep, Payload: body}
}

func fixture() (*fakeOrgs, *fakeSweeper, *fakeReports, *fakeJobs) {
	orgs := &fakeOrgs{list: []models.OrganizationSettings{
		{OrganizationID: 1, RepresentativeRole: roleID(11)},
		{OrganizationID: 2, RepresentativeRole: roleID(22)},
		{OrganizationID: 3, RepresentativeRole: roleID(33)},
	}}
	return orgs, &fakeSweeper{fail: map[snowflake.ID]bool{}}, &fakeReports{}, &fakeJobs{}
}

func TestSweepAllContinuesAfterFailure(t *testing.T) {
	orgs, sw, reports, jobs := fixture()
	sw.fail[2] = true

	NewSweeper(orgs, sw, reports, jobs, time.Hour, nil).SweepAll(context.Background())

	assert.Equal(t, []snowflake.ID{1, 2, 3}, sw.swept)
	require.Len(t, reports.saved, 3)
	assert.Equal(t, "boom", reports.saved[1].Error)
	assert.Equal(t, snowflake.ID(33), reports.saved[2].Role)
}

func TestProcess(t *testing.T) {
	orgs, sw, reports, jobs := fixture()
	s := NewSweeper(orgs, sw, reports, jobs, time.Hour, nil)
	ctx := context.Background()

	require.NoError(t, s.Process(ctx, sweepJob(t, 2)))
	assert.Equal(t, []snowflake.ID{2}, sw.swept)

	require.NoError(t, s.Process(ctx, sweepJob(t, 99)), "unknown organizations are dropped")
	require.NoError(t, s.Process(ctx, &queue.Job{ID: "x", Type: "email"}))
	assert.Equal(t, []snowflake.ID{2}, sw.swept)

	sw.fail[3] = true
	assert.Error(t, s.Process(ctx, sweepJob(t, 3)))
}

func TestRunSweepsAtStartupAndDrainsQueue(t *testing.T) {
	orgs, sw, reports, jobs := fixture()
	sw.fail[3] = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs.pending = []*queue.Job{sweepJob(t, 1), sweepJob(t, 3)}
	jobs.onEmpty = cancel

	s := NewSweeper(orgs, sw, reports, jobs, time.Hour, nil)
	s.backoff = 0
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
	assert.Equal(t, []snowflake.ID{1, 2, 3, 1, 3}, sw.swept)
	require.Len(t, jobs.retried, 1)
	assert.Equal(t, "job-3", jobs.retried[0].ID)
}
