package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-account-backend/internal/http/respcode"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestCheckMandatoryFields(t *testing.T) {
	fields := []string{"email", "password"}
	tests := []struct {
		name    string
		body    string
		missing string
		notObj  bool
	}{
		{name: "all present", body: `{"email":"a@b.com","password":"x"}`},
		{name: "non-string values count as present", body: `{"email":1,"password":false}`},
		{name: "first field absent", body: `{"password":"x"}`, missing: "email"},
		{name: "second field absent", body: `{"email":"a@b.com"}`, missing: "password"},
		{name: "null value", body: `{"email":null,"password":"x"}`, missing: "email"},
		{name: "empty string", body: `{"email":"a@b.com","password":""}`, missing: "password"},
		{name: "both missing reports the first declared", body: `{}`, missing: "email"},
		{name: "array payload", body: `[1,2]`, notObj: true},
		{name: "scalar payload", body: `"x"`, notObj: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMandatoryFields(decode(t, tt.body), fields)
			switch {
			case tt.notObj:
				assert.ErrorIs(t, err, ErrNotObject)
			case tt.missing != "":
				var mf *MissingFieldError
				require.True(t, errors.As(err, &mf), "got %v", err)
				assert.Equal(t, tt.missing, mf.Field)
				assert.Equal(t, "Invalid Mandatory Field "+tt.missing, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckMandatoryFields_DeclaredOrderWins(t *testing.T) {
	err := CheckMandatoryFields(decode(t, `{}`), []string{"password", "email"})
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "password", mf.Field)
}

func TestCheckEmail(t *testing.T) {
	for _, ok := range []string{"a@b.com", "first.last+tag@sub.example.org"} {
		assert.Nil(t, CheckEmail(respcode.ScenarioRegister, ok), ok)
	}
	for _, bad := range []string{"not-an-email", "a@b", "a b@c.com", "@b.com", "a@.com x"} {
		he := CheckEmail(respcode.ScenarioRegister, bad)
		require.NotNil(t, he, bad)
		assert.Equal(t, "4001301", he.Code())
		assert.Equal(t, "Invalid Field Format email", he.Output)
		assert.Equal(t, "email: not a valid email address", he.ErrorLog)
	}
}

func TestCheckPassword_ShortAlwaysFailsOnLength(t *testing.T) {
	for _, pw := range []string{"", "a", "Ab1!", "Ab1!x"} {
		he := CheckPassword(respcode.ScenarioRegister, pw)
		require.NotNil(t, he, pw)
		assert.Equal(t, respcode.CaseInvalidPassword, he.Case)
		assert.Equal(t, "Password must be at least 6 characters", he.Output)
	}
}

func TestCheckPassword_ClassThreshold(t *testing.T) {
	tests := []struct {
		pw   string
		pass bool
	}{
		{"Abcde1!", true},  // 4 classes
		{"Abcdef1", true},  // upper, lower, digit
		{"abcde1!", true},  // lower, digit, symbol
		{"ABCDE1!", true},  // upper, digit, symbol
		{"Abcdef!", true},  // upper, lower, symbol
		{"abcdef1", false}, // 2 classes
		{"ABCDEFG", false}, // 1 class
		{"123456", false},  // 1 class
		{"!!!!!!", false},  // 1 class
		{"abc!!!", false},  // 2 classes
	}
	for _, tt := range tests {
		t.Run(tt.pw, func(t *testing.T) {
			he := CheckPassword(respcode.ScenarioRegister, tt.pw)
			if tt.pass {
				assert.Nil(t, he)
				return
			}
			require.NotNil(t, he)
			assert.Equal(t, "4001306", he.Code())
			assert.True(t, strings.HasPrefix(he.Output, "Password does not meet enough complexity requirements. Missing: "), he.Output)
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	he := InvalidFormat(respcode.ScenarioLogin, "email", "wrong type")
	assert.Equal(t, "4001401", he.Code())
	assert.Equal(t, "Invalid Field Format email", he.Output)
	assert.Contains(t, he.ErrorLog, "wrong type")
}
