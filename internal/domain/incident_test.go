package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitials(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Guilherme", "G"},
		{"maria clara souza", "MC"},
		{"", ""},
		{"Ana  Paula", "A"},
		{"élise dupont", "ÉD"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Initials(tc.name), "name %q", tc.name)
	}
}

func TestUserEffectiveRole(t *testing.T) {
	assert.Equal(t, RoleUser, User{}.EffectiveRole())
	assert.True(t, User{Role: RoleAdmin}.IsAdmin())
	assert.True(t, User{Role: RoleTechnician}.IsTechnician())
	assert.False(t, User{}.IsAdmin())
}

func TestIncidentCloneIsIndependent(t *testing.T) {
	original := Incident{
		ID:       "INC-100001",
		Assignee: &AssigneeSnapshot{ID: "tech-1"},
		Comments: []Comment{{Text: "first", CreatedAt: time.Unix(0, 0).UTC()}},
	}
	clone := original.Clone()
	clone.Assignee.ID = "tech-2"
	clone.Comments[0].Text = "changed"

	require.Equal(t, "tech-1", original.Assignee.ID)
	require.Equal(t, "first", original.Comments[0].Text)
}

func TestStatusAndPriorityValidation(t *testing.T) {
	assert.True(t, IncidentStatusInProgress.Valid())
	assert.False(t, IncidentStatus("pending").Valid())
	assert.True(t, IncidentPriorityCritical.Valid())
	assert.False(t, IncidentPriority("urgent").Valid())
	assert.False(t, Role("root").Valid())
}
