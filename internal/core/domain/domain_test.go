package domain_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mirror/internal/core/domain"
)

func ptr[T any](v T) *T { return &v }

func TestTierOf(t *testing.T) {
	assert.Equal(t, domain.TierCold, domain.TierOf(domain.TypeOrganizations))
	assert.Equal(t, domain.TierCold, domain.TierOf(domain.TypeProjects))
	assert.Equal(t, domain.TierHot, domain.TierOf(domain.TypeJobs))
	assert.Equal(t, domain.TierHot, domain.TierOf(domain.TypeResults))
	assert.Equal(t, domain.TierHot, domain.TierOf(domain.TypeWorkflows))
}

func TestParseEntityType(t *testing.T) {
	got, err := domain.ParseEntityType("jobs")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeJobs, got)

	_, err = domain.ParseEntityType("invoices")
	require.ErrorIs(t, err, domain.ErrUnknownEntityType)
}

func TestEntityType_Paths(t *testing.T) {
	assert.Equal(t, "/api/jobs", domain.TypeJobs.CollectionPath())
	assert.Equal(t, "/api/jobs/j1", domain.TypeJobs.ItemPath("j1"))
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{400, domain.ErrValidation},
		{422, domain.ErrValidation},
		{401, domain.ErrUnauthorized},
		{403, domain.ErrUnauthorized},
		{404, domain.ErrNotFound},
		{409, domain.ErrConflict},
		{418, domain.ErrNetwork},
		{500, domain.ErrNetwork},
	}
	for _, tt := range tests {
		err := &domain.APIError{Kind: domain.KindForStatus(tt.status), Status: tt.status, Method: "GET", Path: "/api/x"}
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &domain.APIError{Kind: domain.KindConflict, Status: 409, Method: "PATCH", Path: "/api/jobs/j1", Message: "stale"}
	assert.Equal(t, "PATCH /api/jobs/j1: 409 stale", err.Error())
	assert.False(t, errors.Is(err, domain.ErrNotFound))

	cause := errors.New("dial tcp: refused")
	netErr := &domain.APIError{Kind: domain.KindNetwork, Method: "GET", Path: "/api/jobs", Cause: cause}
	assert.ErrorIs(t, netErr, cause)
	assert.ErrorIs(t, netErr, domain.ErrNetwork)
	assert.Equal(t, "GET /api/jobs: network error", netErr.Error())
}

func TestChangeNotification_EntityID(t *testing.T) {
	tests := []struct {
		name   string
		n      domain.ChangeNotification
		wantID string
		wantOK bool
	}{
		{
			name:   "insert uses new",
			n:      domain.ChangeNotification{Op: domain.OpInsert, New: json.RawMessage(`{"id":"j1"}`)},
			wantID: "j1", wantOK: true,
		},
		{
			name:   "delete uses old",
			n:      domain.ChangeNotification{Op: domain.OpDelete, Old: json.RawMessage(`{"id":"j2"}`), New: json.RawMessage(`{"id":"x"}`)},
			wantID: "j2", wantOK: true,
		},
		{
			name: "delete without old",
			n:    domain.ChangeNotification{Op: domain.OpDelete, New: json.RawMessage(`{"id":"j2"}`)},
		},
		{
			name: "blank id",
			n:    domain.ChangeNotification{Op: domain.OpUpdate, New: json.RawMessage(`{"id":"  "}`)},
		},
		{
			name: "padded id",
			n:    domain.ChangeNotification{Op: domain.OpUpdate, New: json.RawMessage(`{"id":" j1 "}`)},
		},
		{
			name: "numeric id",
			n:    domain.ChangeNotification{Op: domain.OpUpdate, New: json.RawMessage(`{"id":7}`)},
		},
		{
			name: "not an object",
			n:    domain.ChangeNotification{Op: domain.OpUpdate, New: json.RawMessage(`"j1"`)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := tt.n.EntityID()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestValidID(t *testing.T) {
	assert.True(t, domain.ValidID("j1"))
	assert.True(t, domain.ValidID("a b"))
	assert.False(t, domain.ValidID(""))
	assert.False(t, domain.ValidID("  "))
	assert.False(t, domain.ValidID(" j1"))
	assert.False(t, domain.ValidID("j1\n"))
}

func TestFilters_CanonicalIsOrderIndependent(t *testing.T) {
	a := domain.Filters{"status": "running", "project_id": "p 1"}
	b := domain.Filters{"project_id": "p 1", "status": "running"}

	assert.Equal(t, "project_id=p+1&status=running", a.Canonical())
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), domain.Filters{"status": "failed"}.Hash())
	assert.Empty(t, domain.Filters(nil).Canonical())
	assert.Nil(t, domain.Filters(nil).Values())
}

func TestQueryKey_HasPrefix(t *testing.T) {
	list := domain.ListKey(domain.TypeProjects, domain.Filters{"organization_id": "o1"})
	detail := domain.DetailKey(domain.TypeProjects, "p1")

	assert.True(t, list.HasPrefix(domain.ListPrefix(domain.TypeProjects)))
	assert.False(t, detail.HasPrefix(domain.ListPrefix(domain.TypeProjects)))
	assert.False(t, list.HasPrefix(domain.ListPrefix(domain.TypeOrganizations)))
	assert.True(t, detail.HasPrefix(detail))
	assert.NotEqual(t, list.String(), detail.String())
}

func TestPatches_Validate(t *testing.T) {
	tests := []struct {
		name    string
		patch   interface{ Validate() error }
		wantErr bool
	}{
		{"org ok", domain.OrganizationPatch{Name: ptr("Acme"), Slug: ptr("acme-corp")}, false},
		{"org blank name", domain.OrganizationPatch{Name: ptr(" ")}, true},
		{"org bad slug", domain.OrganizationPatch{Slug: ptr("Acme Corp")}, true},
		{"project blank name", domain.ProjectPatch{Name: ptr("")}, true},
		{"job bad status", domain.JobPatch{Status: ptr(domain.JobStatus("paused"))}, true},
		{"job progress range", domain.JobPatch{Progress: ptr(1.5)}, true},
		{"result invalid json", domain.ResultPatch{Data: json.RawMessage(`{`)}, true},
		{"result ok", domain.ResultPatch{Data: json.RawMessage(`{"a":1}`), Reviewed: ptr(true)}, false},
		{"workflow empty step", domain.WorkflowPatch{Steps: []string{"ocr", ""}}, true},
		{"empty patch", domain.WorkflowPatch{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPatches_ApplyLeavesUnsetFields(t *testing.T) {
	org := domain.Organization{ID: "c1", Name: "Old", Slug: "old", Plan: "pro"}
	got := domain.OrganizationPatch{Name: ptr("New")}.Apply(org)
	assert.Equal(t, domain.Organization{ID: "c1", Name: "New", Slug: "old", Plan: "pro"}, got)
	assert.Equal(t, "Old", org.Name, "Apply must not mutate its input")

	wf := domain.Workflow{ID: "w1", Steps: []string{"a"}}
	steps := []string{"b", "c"}
	patched := domain.WorkflowPatch{Steps: steps}.Apply(wf)
	steps[0] = "mutated"
	assert.Equal(t, []string{"b", "c"}, patched.Steps)
}

func TestTransitionPatch(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-time.Minute)

	t.Run("pending to running stamps started_at", func(t *testing.T) {
		patch, err := domain.TransitionPatch(domain.Job{Status: domain.JobPending}, domain.JobRunning, now)
		require.NoError(t, err)
		require.NotNil(t, patch.StartedAt)
		assert.Equal(t, now, *patch.StartedAt)
		assert.Nil(t, patch.CompletedAt)
	})

	t.Run("running keeps existing started_at", func(t *testing.T) {
		patch, err := domain.TransitionPatch(domain.Job{Status: domain.JobPending, StartedAt: &started}, domain.JobRunning, now)
		require.NoError(t, err)
		assert.Nil(t, patch.StartedAt)
	})

	t.Run("succeeded stamps completion and progress", func(t *testing.T) {
		patch, err := domain.TransitionPatch(domain.Job{Status: domain.JobRunning, StartedAt: &started}, domain.JobSucceeded, now)
		require.NoError(t, err)
		require.NotNil(t, patch.CompletedAt)
		assert.Equal(t, now, *patch.CompletedAt)
		require.NotNil(t, patch.Progress)
		assert.InDelta(t, 1.0, *patch.Progress, 0)
		assert.Nil(t, patch.StartedAt)
	})

	t.Run("failed before start stamps both", func(t *testing.T) {
		patch, err := domain.TransitionPatch(domain.Job{Status: domain.JobPending}, domain.JobFailed, now)
		require.NoError(t, err)
		assert.NotNil(t, patch.StartedAt)
		assert.NotNil(t, patch.CompletedAt)
		assert.Nil(t, patch.Progress)
	})

	t.Run("terminal jobs cannot move", func(t *testing.T) {
		_, err := domain.TransitionPatch(domain.Job{Status: domain.JobCancelled}, domain.JobRunning, now)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown target status", func(t *testing.T) {
		_, err := domain.TransitionPatch(domain.Job{Status: domain.JobPending}, "paused", now)
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}
