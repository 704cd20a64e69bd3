// registration/service/registration_service_test.go
package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackbits/registration-service/shared/models"
)

func TestRegisterTeamAssignsSequentialNumbers(t *testing.T) {
	f := newFixture()

	first := f.registerTeam(t, "Alpha", "u1")
	second := f.registerTeam(t, "Beta", "u2")

	assert.Equal(t, "TEAM0001", first.RegistrationNumber)
	assert.Equal(t, "TEAM0002", second.RegistrationNumber)
	assert.Equal(t, models.PaymentPending, first.PaymentStatus)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.Equal(t, models.SizeSolo.Amount(), first.PaymentAmount)
}

func TestRegisterTeamRejectsDuplicateName(t *testing.T) {
	f := newFixture()
	f.registerTeam(t, "Alpha", "u1")

	_, err := f.registration.RegisterTeam(context.Background(), RegisterTeamInput{
		TeamName: "Alpha",
		TeamSize: models.SizeSolo,
		Leader:   models.Participant{UserID: "u2", Name: "B", Email: "b@example.com"},
	})
	assert.ErrorIs(t, err, ErrDuplicateTeamName)
}

func TestRegisterTeamRejectsDuplicateNameUnderConcurrency(t *testing.T) {
	f := newFixture()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.registration.RegisterTeam(context.Background(), RegisterTeamInput{
				TeamName: "Contested",
				TeamSize: models.SizeSolo,
				Leader: models.Participant{
					UserID: string(rune('a' + i)),
					Name:   "L",
					Email:  "l@example.com",
				},
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrDuplicateTeamName)
		}
	}
	assert.Equal(t, 1, winners, "exactly one registration must win the name")
}

func TestRegisterTeamRejectsParticipantOnAnotherTeam(t *testing.T) {
	f := newFixture()
	f.registerTeam(t, "Alpha", "u1")

	// Leader of Alpha tries to join Beta as a member.
	_, err := f.registration.RegisterTeam(context.Background(), RegisterTeamInput{
		TeamName: "Beta",
		TeamSize: models.SizeDuo,
		Leader:   models.Participant{UserID: "u2", Name: "B", Email: "b@example.com"},
		Members:  []models.Participant{{UserID: "u1", Name: "A", Email: "a@example.com"}},
	})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterTeamValidatesTierAndMemberCount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.registration.RegisterTeam(ctx, RegisterTeamInput{
		TeamName: "Alpha",
		TeamSize: "Quartet",
		Leader:   models.Participant{UserID: "u1", Name: "A", Email: "a@example.com"},
	})
	assert.ErrorIs(t, err, ErrInvalidTier)

	// Solo tier allows no members beyond the leader.
	_, err = f.registration.RegisterTeam(ctx, RegisterTeamInput{
		TeamName: "Alpha",
		TeamSize: models.SizeSolo,
		Leader:   models.Participant{UserID: "u1", Name: "A", Email: "a@example.com"},
		Members:  []models.Participant{{UserID: "u2", Name: "B", Email: "b@example.com"}},
	})
	assert.ErrorIs(t, err, ErrMemberCount)
}

func TestGetTeamByParticipantFindsMembers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.registration.RegisterTeam(ctx, RegisterTeamInput{
		TeamName: "Gamma",
		TeamSize: models.SizeDuo,
		Leader:   models.Participant{UserID: "lead", Name: "L", Email: "l@example.com"},
		Members:  []models.Participant{{UserID: "mem", Name: "M", Email: "m@example.com"}},
	})
	require.NoError(t, err)

	byLeader, err := f.registration.GetTeamByParticipant(ctx, "lead")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byLeader.ID)

	byMember, err := f.registration.GetTeamByParticipant(ctx, "mem")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byMember.ID)

	_, err = f.registration.GetTeamByParticipant(ctx, "stranger")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestListTeamsFiltersByStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.registerTeam(t, "Alpha", "u1")
	f.registerTeam(t, "Beta", "u2")
	f.readyForVerification(t, a)
	_, err := f.verification.SetPaymentStatus(ctx, a.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)

	all, err := f.registration.ListTeams(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	verified, err := f.registration.ListTeams(ctx, models.PaymentVerified)
	require.NoError(t, err)
	require.Len(t, verified, 1)
	assert.Equal(t, "Alpha", verified[0].TeamName)

	_, err = f.registration.ListTeams(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
