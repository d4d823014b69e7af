package directory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStudent(t *testing.T) {
	id := uuid.New()
	s, err := NewStudent(uuid.New(), id, " Asha ", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, "Asha", s.Name)
	assert.True(t, s.Active)
	assert.Equal(t, 1, s.Version)

	_, err = NewStudent(uuid.New(), id, "Asha", uuid.Nil)
	assert.Error(t, err)
}

func TestStudent_Update(t *testing.T) {
	s, err := NewStudent(uuid.New(), uuid.New(), "Asha", uuid.New())
	require.NoError(t, err)

	route := uuid.New()
	require.NoError(t, s.Update("Asha K", s.ClassGroupID, &route, []uuid.UUID{uuid.New()}, false))
	assert.Equal(t, &route, s.RouteID)
	assert.Len(t, s.OptionalFeeGroupIDs, 1)
	assert.False(t, s.Active)
	assert.Equal(t, 2, s.Version)

	assert.Error(t, s.Update("", s.ClassGroupID, nil, nil, true))
}

func TestTeacherAttendance_Validate(t *testing.T) {
	tests := []struct {
		name    string
		a       TeacherAttendance
		wantErr bool
	}{
		{"valid", TeacherAttendance{Month: 5, Year: 2024, WorkingDays: 25, AbsentDays: 2}, false},
		{"absent exceeds working", TeacherAttendance{Month: 5, Year: 2024, WorkingDays: 2, AbsentDays: 3}, true},
		{"negative", TeacherAttendance{Month: 5, Year: 2024, WorkingDays: -1}, true},
		{"bad month", TeacherAttendance{Month: 13, Year: 2024, WorkingDays: 20}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.a.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewTeacher(t *testing.T) {
	_, err := NewTeacher(uuid.New(), uuid.New(), "")
	assert.Error(t, err)

	tr, err := NewTeacher(uuid.New(), uuid.New(), "Mr. Rao")
	require.NoError(t, err)
	assert.True(t, tr.Active)
}

func TestTeacher_Update(t *testing.T) {
	tr, err := NewTeacher(uuid.New(), uuid.New(), "Mr. Rao")
	require.NoError(t, err)

	require.NoError(t, tr.Update("  Mr. S. Rao ", false))
	assert.Equal(t, "Mr. S. Rao", tr.Name)
	assert.False(t, tr.Active)
	assert.Equal(t, 2, tr.Version)

	assert.Error(t, tr.Update(" ", true))
}
