package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginMasksPassword(t *testing.T) {
	expectedMap := map[string]string{"email": "andika@example.com", "password": "***"}
	expected, _ := json.Marshal(expectedMap)
	loginReq := Login{Email: "andika@example.com", Password: "secret-password"}

	actual, _ := json.Marshal(loginReq)

	assert.EqualValues(t, expected, actual)
	assert.EqualValues(t, "secret-password", loginReq.Password)
}

func TestRegisterMasksPassword(t *testing.T) {
	expectedMap := map[string]string{
		"username": "andika",
		"email":    "andika@example.com",
		"password": "***",
	}
	expected, _ := json.Marshal(expectedMap)
	registerReq := Register{
		Username: "andika",
		Email:    "andika@example.com",
		Password: "secret-password",
	}

	actual, _ := json.Marshal(registerReq)

	assert.JSONEq(t, string(expected), string(actual))
	assert.EqualValues(t, "secret-password", registerReq.Password)
}
