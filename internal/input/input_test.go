package input

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_Login(t *testing.T) {
	t.Parallel()

	t.Run("valid form passes", func(t *testing.T) {
		err := Validate(Login{Email: "nk@example.com", Password: "pwd"})

		require.NoError(t, err)
	})

	t.Run("empty form reports both fields", func(t *testing.T) {
		err := Validate(Login{})

		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		require.Equal(t, FieldErrors{
			"email":    "This field is required",
			"password": "This field is required",
		}, fields)
	})

	t.Run("malformed email", func(t *testing.T) {
		err := Validate(Login{Email: "not-an-email", Password: "pwd"})

		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		require.Equal(t, "Invalid email address", fields["email"])
	})
}

func TestValidate_Register(t *testing.T) {
	t.Parallel()

	t.Run("valid form passes", func(t *testing.T) {
		err := Validate(Register{
			Email:           "nk@example.com",
			Password:        "longenough",
			ConfirmPassword: "longenough",
		})

		require.NoError(t, err)
	})

	t.Run("role is optional but constrained", func(t *testing.T) {
		form := Register{
			Email:           "nk@example.com",
			Password:        "longenough",
			ConfirmPassword: "longenough",
			Role:            "owner",
		}

		err := Validate(form)

		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		require.Equal(t, "Must be one of: admin, editor, viewer", fields["role"])
	})

	t.Run("short password", func(t *testing.T) {
		err := Validate(Register{
			Email:           "nk@example.com",
			Password:        "short",
			ConfirmPassword: "short",
		})

		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		require.Equal(t, "Value is too short (minimum 8)", fields["password"])
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		err := Validate(Register{
			Email:           "nk@example.com",
			Password:        "longenough",
			ConfirmPassword: "different1",
		})

		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		require.Equal(t, "Passwords don't match", fields["confirm_password"])
		require.NotContains(t, fields, "password", "errors stay scoped to the failing field")
	})
}

func TestValidate_Invite(t *testing.T) {
	t.Parallel()

	t.Run("role must be picked", func(t *testing.T) {
		err := Validate(Invite{
			Email:           "nk@example.com",
			Password:        "longenough",
			ConfirmPassword: "longenough",
		})

		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		require.Equal(t, "This field is required", fields["role"])
	})
}

func TestFieldErrors_Error(t *testing.T) {
	t.Parallel()

	fields := FieldErrors{
		"password": "This field is required",
		"email":    "Invalid email address",
	}

	require.Equal(t,
		"validation failed: email: Invalid email address; password: This field is required",
		fields.Error(), "message should list fields in stable order")
}
