package domain_test

import (
	"testing"

	"github.com/preflightci/preflight/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name                       string
		errors, warnings, failures int
		want                       int
	}{
		{"clean", 0, 0, 0, 100},
		{"one error", 1, 0, 0, 90},
		{"one warning", 0, 1, 0, 97},
		{"one failed stage", 0, 0, 1, 90},
		{"errors capped at five", 50, 0, 0, 50},
		{"warnings capped at ten", 0, 50, 0, 70},
		{"failures capped at two", 0, 0, 4, 80},
		{"worst case clamps at zero", 50, 50, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ComputeScore(tt.errors, tt.warnings, tt.failures))
		})
	}
}

func TestComputeScore_MonotonicInIssues(t *testing.T) {
	prev := 101
	for errors := 0; errors <= 8; errors++ {
		s := domain.ComputeScore(errors, 0, 0)
		assert.LessOrEqual(t, s, prev, "score rose when errors grew to %d", errors)
		assert.GreaterOrEqual(t, s, 0)
		prev = s
	}
	prev = 101
	for warnings := 0; warnings <= 15; warnings++ {
		s := domain.ComputeScore(0, warnings, 0)
		assert.LessOrEqual(t, s, prev, "score rose when warnings grew to %d", warnings)
		assert.GreaterOrEqual(t, s, 0)
		prev = s
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		counts   domain.Counts
		want     string
	}{
		{"all clean", 0, domain.Counts{}, domain.StatusPass},
		{"infos stay pass", 0, domain.Counts{Infos: 7}, domain.StatusPass},
		{"warnings", 0, domain.Counts{Warnings: 2}, domain.StatusWarn},
		{"error issue", 0, domain.Counts{Errors: 1}, domain.StatusFail},
		{"failed stage without issues", 1, domain.Counts{}, domain.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.DeriveStatus(tt.failures, tt.counts))
		})
	}
}

func TestStageResults_Failed(t *testing.T) {
	stages := domain.StageResults{
		Static:  &domain.StaticResult{Status: domain.StatusPass},
		Build:   &domain.BuildResult{Status: domain.StatusFail},
		Runtime: &domain.RuntimeResult{Status: domain.StatusFail},
	}
	assert.Equal(t, 2, stages.Failed())
	assert.Len(t, stages.Statuses(), 3)

	var none domain.StageResults
	assert.Equal(t, 0, none.Failed())
	assert.Empty(t, none.Statuses())
}

func TestStageResults_SkipIsNotFailure(t *testing.T) {
	stages := domain.StageResults{
		Build: &domain.BuildResult{Status: domain.StatusSkip},
		UI:    &domain.UIResult{Status: domain.StatusSkip},
	}
	assert.Equal(t, 0, stages.Failed())
}

func TestValidationResult_Passed(t *testing.T) {
	r := &domain.ValidationResult{Status: domain.StatusPass, Score: 100}
	assert.True(t, r.Passed())
	assert.Equal(t, "A+", r.Grade())

	r = &domain.ValidationResult{Status: domain.StatusFail, Score: 40}
	assert.False(t, r.Passed())
	assert.Equal(t, "F", r.Grade())
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, domain.ClampScore(-10))
	assert.Equal(t, 100, domain.ClampScore(250))
	assert.Equal(t, 55, domain.ClampScore(55))
}
