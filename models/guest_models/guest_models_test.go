package guest_models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)

func validAdult() Guest {
	return Guest{
		FullName:    "Nguyen Van A",
		BirthDate:   "15/03/1990",
		Gender:      "male",
		Nationality: "Vietnamese",
		GuestType:   GuestTypeAdult,
	}
}

func TestGuestComposition(t *testing.T) {
	t.Run("SeedsOneAdult", func(t *testing.T) {
		c := NewGuestComposition()
		assert.Equal(t, 1, c.AdultCount())
		assert.Equal(t, 0, c.ChildCount())
		assert.Equal(t, 0, c.BabyCount())
	})

	t.Run("AdultCountNeverBelowOne", func(t *testing.T) {
		c := NewGuestComposition()
		c.SetAdultCount(0)
		assert.Equal(t, 1, c.AdultCount())
		c.SetAdultCount(-5)
		assert.Equal(t, 1, c.AdultCount())
	})

	t.Run("GrowingPreservesEnteredData", func(t *testing.T) {
		c := NewGuestComposition()
		c.Adults[0] = validAdult()
		c.SetAdultCount(3)
		assert.Equal(t, "Nguyen Van A", c.Adults[0].FullName)
		assert.Equal(t, GuestTypeAdult, c.Adults[2].GuestType)
	})

	t.Run("ShrinkingTruncatesFromTheEnd", func(t *testing.T) {
		c := NewGuestComposition()
		c.SetChildCount(3)
		c.Children[0].FullName = "First Child"
		c.SetChildCount(1)
		require.Equal(t, 1, c.ChildCount())
		assert.Equal(t, "First Child", c.Children[0].FullName)
	})

	t.Run("AllReturnsCompositionOrder", func(t *testing.T) {
		c := NewGuestComposition()
		c.SetChildCount(1)
		c.SetBabyCount(1)
		all := c.All()
		require.Len(t, all, 3)
		assert.Equal(t, GuestTypeAdult, all[0].GuestType)
		assert.Equal(t, GuestTypeChild, all[1].GuestType)
		assert.Equal(t, GuestTypeBaby, all[2].GuestType)
	})
}

func TestParseBirthDate(t *testing.T) {
	slash, err := ParseBirthDate("02/01/2000")
	require.NoError(t, err)
	iso, err := ParseBirthDate("2000-01-02")
	require.NoError(t, err)
	assert.True(t, slash.Equal(iso))

	_, err = ParseBirthDate("01-02-2000")
	assert.Error(t, err)
	_, err = ParseBirthDate("")
	assert.Error(t, err)
}

func TestAgeBands(t *testing.T) {
	cases := []struct {
		name      string
		birthDate string
		guestType GuestType
		ok        bool
	}{
		{"AdultExactly18", "15/06/2008", GuestTypeAdult, true},
		{"AdultTurns18Tomorrow", "16/06/2008", GuestTypeAdult, false},
		{"Child17IsNotAdult", "15/06/2009", GuestTypeAdult, false},
		{"Child17", "15/06/2009", GuestTypeChild, true},
		{"ChildExactly2", "15/06/2024", GuestTypeChild, true},
		{"BabyUnder2", "16/06/2024", GuestTypeBaby, true},
		{"BabyExactly2IsChild", "15/06/2024", GuestTypeBaby, false},
		{"Adult18IsNotChild", "15/06/2008", GuestTypeChild, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := validAdult()
			g.BirthDate = tc.birthDate
			g.GuestType = tc.guestType
			errs := ValidateGuest(g, 0, testNow)
			if tc.ok {
				assert.Empty(t, errs)
			} else {
				require.NotEmpty(t, errs)
				assert.Equal(t, "birth_date", errs[0].Field)
			}
		})
	}
}

func TestValidateGuest(t *testing.T) {
	t.Run("ValidAdultPasses", func(t *testing.T) {
		assert.Empty(t, ValidateGuest(validAdult(), 0, testNow))
	})

	t.Run("FailuresAggregate", func(t *testing.T) {
		g := Guest{GuestType: GuestTypeAdult, BirthDate: "15/03/1990"}
		errs := ValidateGuest(g, 2, testNow)
		require.Len(t, errs, 3)
		for _, e := range errs {
			assert.Equal(t, 2, e.GuestIndex)
			assert.Equal(t, GuestTypeAdult, e.GuestType)
		}
	})

	t.Run("UnparseableBirthDateStopsAgeCheck", func(t *testing.T) {
		g := validAdult()
		g.BirthDate = "not-a-date"
		errs := ValidateGuest(g, 0, testNow)
		require.Len(t, errs, 1)
		assert.Equal(t, "birth_date", errs[0].Field)
	})
}

func TestValidateComposition(t *testing.T) {
	t.Run("EmptyCompositionFailsAdultFloor", func(t *testing.T) {
		res := ValidateComposition(&GuestComposition{}, testNow)
		require.False(t, res.Valid())
		assert.Equal(t, -1, res.Errors[0].GuestIndex)
		assert.Equal(t, "adults", res.Errors[0].Field)
	})

	t.Run("ErrorsAggregateAcrossTypes", func(t *testing.T) {
		c := NewGuestComposition()
		c.Adults[0] = validAdult()
		c.SetChildCount(1)
		c.SetBabyCount(1)
		res := ValidateComposition(c, testNow)
		assert.False(t, res.Valid())
		types := map[GuestType]bool{}
		for _, e := range res.Errors {
			types[e.GuestType] = true
		}
		assert.True(t, types[GuestTypeChild])
		assert.True(t, types[GuestTypeBaby])
	})

	t.Run("FullyValidComposition", func(t *testing.T) {
		c := NewGuestComposition()
		c.Adults[0] = validAdult()
		c.SetChildCount(1)
		c.Children[0] = Guest{
			FullName: "Nguyen Van B", BirthDate: "2015-05-01",
			Gender: "female", Nationality: "Vietnamese", GuestType: GuestTypeChild,
		}
		res := ValidateComposition(c, testNow)
		assert.True(t, res.Valid(), res.Error())
	})
}
