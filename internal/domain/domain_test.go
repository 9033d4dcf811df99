package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantValidate(t *testing.T) {
	t.Parallel()

	valid := Participant{ID: uuid.New(), Name: "Jane Doe"}
	assert.NoError(t, valid.Validate())

	noID := Participant{Name: "Jane Doe"}
	assert.ErrorIs(t, noID.Validate(), ErrEmptyParticipantID)

	noName := Participant{ID: uuid.New()}
	assert.ErrorIs(t, noName.Validate(), ErrEmptyParticipantName)
}

func TestResumeHasFile(t *testing.T) {
	t.Parallel()

	assert.False(t, Resume{}.HasFile())
	assert.True(t, Resume{Path: "jane.pdf"}.HasFile())
}

func TestNewVisit(t *testing.T) {
	t.Parallel()

	participantID, companyID, recordedBy := uuid.New(), uuid.New(), uuid.New()

	visit, err := NewVisit(participantID, companyID, recordedBy, "note")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, visit.ID)
	assert.Equal(t, participantID, visit.ParticipantID)
	assert.False(t, visit.CreatedAt.IsZero())

	_, err = NewVisit(uuid.Nil, companyID, recordedBy, "")
	assert.ErrorIs(t, err, ErrEmptyVisitParticipant)

	_, err = NewVisit(participantID, uuid.Nil, recordedBy, "")
	assert.ErrorIs(t, err, ErrEmptyVisitCompany)
}

func TestIdentityPermissions(t *testing.T) {
	t.Parallel()

	admin := Identity{UUID: uuid.New(), Role: RoleAdmin}
	assert.True(t, admin.CanExportAll())
	assert.True(t, admin.CanExportCompany())

	verified := Identity{UUID: uuid.New(), Role: RoleStaff, CompanyID: uuid.New(), Verified: true}
	assert.False(t, verified.CanExportAll())
	assert.True(t, verified.CanExportCompany())

	unverified := Identity{UUID: uuid.New(), Role: RoleStaff, CompanyID: uuid.New()}
	assert.False(t, unverified.CanExportCompany())

	noCompany := Identity{UUID: uuid.New(), Role: RoleStaff, Verified: true}
	assert.False(t, noCompany.CanExportCompany())

	unknownRole := Identity{UUID: uuid.New(), Role: Role("intern")}
	assert.False(t, unknownRole.CanExportAll())
	assert.False(t, unknownRole.CanExportCompany())
}
