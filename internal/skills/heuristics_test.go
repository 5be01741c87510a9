package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelinas/repomatch/internal/domain"
)

func TestExperienceLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect domain.ExperienceLevel
	}{
		{"senior keyword", "Senior Backend Engineer", domain.ExperienceSenior},
		{"years of experience", "must have 7+ years of experience", domain.ExperienceSenior},
		{"staff title", "Staff engineer role", domain.ExperienceSenior},
		{"junior keyword", "Junior developer position", domain.ExperienceEntry},
		{"internship", "summer internship for students", domain.ExperienceEntry},
		{"entry level with hyphen", "entry-level opening", domain.ExperienceEntry},
		{"mid level", "mid-level engineer", domain.ExperienceMid},
		{"few years", "2+ years with Go", domain.ExperienceMid},
		{"senior wins over entry", "Senior role, juniors welcome to apply later", domain.ExperienceSenior},
		{"no marker", "Backend Engineer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, ExperienceLevel(tt.input))
		})
	}
}

func TestJobType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect domain.JobType
	}{
		{"full time", "full-time position", domain.JobTypeFullTime},
		{"permanent", "permanent role in Berlin", domain.JobTypeFullTime},
		{"part time", "part time on weekends", domain.JobTypePartTime},
		{"contract", "6 month contract", domain.JobTypeContract},
		{"freelance", "freelancer wanted", domain.JobTypeContract},
		{"part time wins over full time", "part-time now, full-time later", domain.JobTypePartTime},
		{"no marker", "Backend Engineer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, JobType(tt.input))
		})
	}
}
