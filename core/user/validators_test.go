package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		uname string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 123!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "12345678", want: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcd1234", want: pwdComplexityTag},
		{name: "no upper", pwd: "abcd123!", want: pwdComplexityTag},
		{name: "similar to username", pwd: "Kamau@2021", uname: "kamau2021", want: pwdAttrSimTag},
		{name: "common", pwd: "P@ssw0rd", want: pwdNoCommonTag},
		{name: "valid", pwd: "Tr0ub4dor&3x", uname: "jdoe_admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkPassword(tt.pwd, "", tt.uname, ""); got != tt.want {
				t.Errorf("checkPassword() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewUserValidation(t *testing.T) {
	validate, translator := core.NewValidator()
	RegisterValidators(validate, translator)

	tests := []struct {
		name       string
		nu         NewUser
		wantFields []string
	}{
		{
			name:       "missing username and email",
			nu:         NewUser{Name: "Amina", Role: RoleStudent, Password: "Tr0ub4dor&3x", PasswordConfirm: "Tr0ub4dor&3x"},
			wantFields: []string{"username", "email"},
		},
		{
			name:       "bad role",
			nu:         NewUser{Name: "Amina", Email: "amina@test.test", Role: "janitor", Password: "Tr0ub4dor&3x", PasswordConfirm: "Tr0ub4dor&3x"},
			wantFields: []string{"role"},
		},
		{
			name:       "passwords differ",
			nu:         NewUser{Name: "Amina", Email: "amina@test.test", Role: RoleStudent, Password: "Tr0ub4dor&3x", PasswordConfirm: "Tr0ub4dor&3y"},
			wantFields: []string{"password_confirm"},
		},
		{
			name: "valid",
			nu:   NewUser{Name: "Amina", Email: "amina@test.test", Role: RoleStudent, Password: "Tr0ub4dor&3x", PasswordConfirm: "Tr0ub4dor&3x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.nu)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var got []string
			for _, fe := range err.(validator.ValidationErrors) {
				got = append(got, fe.Field())
			}
			assert.ElementsMatch(t, tt.wantFields, got)
		})
	}
}
