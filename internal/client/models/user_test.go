package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_UnmarshalKeepsUnknownFields(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"42","name":"Ada","email":"ada@example.org","isVerified":true,"profile":{"city":"Riga"}}`), &u))

	assert.Equal(t, "42", u.ID)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.org", u.Email)
	require.Contains(t, u.Extra, "isVerified")
	assert.JSONEq(t, `{"city":"Riga"}`, string(u.Extra["profile"]))

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42","name":"Ada","email":"ada@example.org","isVerified":true,"profile":{"city":"Riga"}}`, string(b))
}

func TestUser_IDPrefersID(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"mongo","id":"canonical"}`), &u))
	assert.Equal(t, "canonical", u.ID)
}

func TestUser_UnmarshalRejectsWrongTypes(t *testing.T) {
	var u User
	require.Error(t, json.Unmarshal([]byte(`{"name": 7}`), &u))
	require.Error(t, json.Unmarshal([]byte(`{"id": true}`), &u))
	require.Error(t, json.Unmarshal([]byte(`[]`), &u))
}

func TestUser_NumericID(t *testing.T) {
	var res AuthResult
	require.NoError(t, json.Unmarshal([]byte(`{"token":"t","user":{"id":42,"name":"Ada"}}`), &res))
	require.NotNil(t, res.User)
	assert.Equal(t, "42", res.User.ID)
	assert.True(t, res.HasSession())

	out, err := json.Marshal(res.User)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"name":"Ada","email":""}`, string(out))

	var mongo User
	require.NoError(t, json.Unmarshal([]byte(`{"_id":7}`), &mongo))
	assert.Equal(t, "7", mongo.ID)

	merged, err := res.User.Merge(map[string]any{"name": "Ada L."})
	require.NoError(t, err)
	assert.Equal(t, "42", merged.ID)
}

func TestUser_MergeIsShallow(t *testing.T) {
	u := &User{ID: "1", Name: "Ada", Email: "ada@example.org", Extra: map[string]json.RawMessage{
		"profile": json.RawMessage(`{"city":"Riga","bio":"hi"}`),
	}}

	merged, err := u.Merge(map[string]any{
		"name":    "Ada L.",
		"profile": map[string]any{"city": "Tallinn"},
	})
	require.NoError(t, err)

	assert.Equal(t, "1", merged.ID)
	assert.Equal(t, "Ada L.", merged.Name)
	assert.Equal(t, "ada@example.org", merged.Email)
	assert.JSONEq(t, `{"city":"Tallinn"}`, string(merged.Extra["profile"]), "nested objects are replaced whole")
	assert.Equal(t, "Ada", u.Name, "receiver is not modified")
}

func TestUser_Clone(t *testing.T) {
	var nilUser *User
	assert.Nil(t, nilUser.Clone())

	u := &User{ID: "1", Extra: map[string]json.RawMessage{"k": json.RawMessage(`1`)}}
	c := u.Clone()
	c.Extra["k"][0] = '2'
	assert.Equal(t, `1`, string(u.Extra["k"]))
}

func TestAuthResult_HasSession(t *testing.T) {
	var nilResult *AuthResult
	assert.False(t, nilResult.HasSession())
	assert.False(t, (&AuthResult{RequiresVerification: true}).HasSession())
	assert.False(t, (&AuthResult{Token: "t"}).HasSession())
	assert.True(t, (&AuthResult{Token: "t", User: &User{ID: "1"}}).HasSession())
}
