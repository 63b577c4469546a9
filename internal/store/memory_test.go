package store

import (
	"context"
	"testing"
	"time"

	"github.com/jonathan/form-autofill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Answers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := types.NewAnswerValue(types.Email, "old@example.com", base)
	newer := types.NewAnswerValue(types.Email, "new@example.com", base.Add(time.Hour))
	phone := types.NewAnswerValue(types.Phone, "555-0100", base)
	for _, a := range []*types.AnswerValue{&older, &newer, &phone} {
		require.NoError(t, m.SaveAnswer(ctx, a))
	}

	emails, err := m.GetByType(ctx, types.Email)
	require.NoError(t, err)
	require.Len(t, emails, 2)
	assert.Equal(t, "new@example.com", emails[0].Value)

	found, err := m.FindByValue(ctx, types.Email, "  OLD@example.com ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, older.ID, found.ID)

	missing, err := m.FindByValue(ctx, types.Phone, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, m.DeleteAnswer(ctx, older.ID))
	assert.ErrorIs(t, m.DeleteAnswer(ctx, older.ID), ErrNotFound)

	all, err := m.ListAnswers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemory_SaveAnswerAppliesSensitivity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a := &types.AnswerValue{Type: types.EEOGender, Value: "Female", AutofillAllowed: true}
	require.NoError(t, m.SaveAnswer(ctx, a))
	assert.NotEmpty(t, a.ID)

	got, err := m.GetByType(ctx, types.EEOGender)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.SensitivitySensitive, got[0].Sensitivity)
	assert.False(t, got[0].AutofillAllowed)
}

func TestMemory_Experiences(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	acme := &types.ExperienceEntry{GroupType: types.GroupWork, Priority: 0, Fields: map[types.Taxonomy]string{types.CompanyName: "Acme Corp"}}
	beta := &types.ExperienceEntry{GroupType: types.GroupWork, Priority: 1, Fields: map[types.Taxonomy]string{types.CompanyName: "Beta Inc"}}
	mit := &types.ExperienceEntry{GroupType: types.GroupEducation, Priority: 0, Fields: map[types.Taxonomy]string{types.School: "MIT"}}
	for _, e := range []*types.ExperienceEntry{beta, acme, mit} {
		require.NoError(t, m.SaveExperience(ctx, e))
	}

	got, err := m.GetByPriority(ctx, types.GroupWork, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Beta Inc", got.Fields[types.CompanyName])

	none, err := m.GetByPriority(ctx, types.GroupProject, 0)
	require.NoError(t, err)
	assert.Nil(t, none)

	work, err := m.ListExperiences(ctx, types.GroupWork)
	require.NoError(t, err)
	require.Len(t, work, 2)
	assert.Equal(t, acme.ID, work[0].ID)

	all, err := m.ListExperiences(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, m.DeleteExperience(ctx, mit.ID))
	assert.ErrorIs(t, m.DeleteExperience(ctx, mit.ID), ErrNotFound)
}

func TestMemory_RecentObservations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		o := &types.Observation{Type: types.City, Label: "City", CommittedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, m.SaveObservation(ctx, o))
	}

	got, err := m.RecentObservations(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, base.Add(4*time.Minute), got[0].CommittedAt)
	assert.Equal(t, base.Add(2*time.Minute), got[2].CommittedAt)
}
