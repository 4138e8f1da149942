package joinrequest

import (
	"errors"
	"testing"
)

func TestValidateNotes(t *testing.T) {
	if err := validateNotes("no seats left on the proposed van"); err != nil {
		t.Errorf("valid notes rejected: %v", err)
	}
	for _, notes := range []string{"", "   ", "\t\n"} {
		if err := validateNotes(notes); !errors.Is(err, ErrNotesRequired) {
			t.Errorf("validateNotes(%q) = %v, want ErrNotesRequired", notes, err)
		}
	}
}

func TestResolutionErrorMessages(t *testing.T) {
	already := &AlreadyResolvedError{Status: StatusApproved}
	if already.Error() != "join request already resolved (status: approved)" {
		t.Errorf("unexpected message: %s", already.Error())
	}
	notJoinable := &NotJoinableError{TripStatus: "optimized"}
	if notJoinable.Error() != "trip cannot take riders in status optimized" {
		t.Errorf("unexpected message: %s", notJoinable.Error())
	}
}
