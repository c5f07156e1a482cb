package validate_test

import (
	"testing"

	"github.com/disastersync/ledger/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Check(t *testing.T) {
	type alert struct {
		Type    string `json:"type" validate:"required,max=10"`
		Message string `json:"message" validate:"required"`
	}

	t.Log("Given the need to validate request models.")
	{
		t.Logf("\tTest 0:\tWhen required fields are missing.")
		{
			err := validate.Check(alert{Type: "something far too long"})
			if !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest 0:\tShould return field errors, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould return field errors.", success)

			fields := validate.GetFieldErrors(err).Fields()
			if _, exists := fields["message"]; !exists {
				t.Fatalf("\t%s\tTest 0:\tShould name the field by its json tag: %v", failed, fields)
			}
			if _, exists := fields["type"]; !exists {
				t.Fatalf("\t%s\tTest 0:\tShould report the max length: %v", failed, fields)
			}
			t.Logf("\t%s\tTest 0:\tShould name the fields by their json tags.", success)
		}

		t.Logf("\tTest 1:\tWhen the model is valid.")
		{
			if err := validate.Check(&alert{Type: "FLOOD", Message: "evacuate"}); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould pass validation: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould pass validation.", success)
		}

		t.Logf("\tTest 2:\tWhen the value is not a struct.")
		{
			if err := validate.Check(&map[string]any{}); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould skip validation: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould skip validation.", success)
		}
	}
}
