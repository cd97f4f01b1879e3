package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessionToken_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 60)
	userID := primitive.NewObjectID()

	token, err := tm.GenerateSessionToken(userID, "device-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.UserID)
	assert.Equal(t, "device-1", claims.DeviceID)

	parsed, err := claims.SubjectID()
	assert.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestValidateToken_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, -1)
	token, err := tm.GenerateSessionToken(primitive.NewObjectID(), "")
	assert.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewTokenManager(testSecret, 60).
		GenerateSessionToken(primitive.NewObjectID(), "")
	assert.NoError(t, err)

	other := NewTokenManager("ffffffffffffffffffffffffffffffff", 60)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	tm := NewTokenManager(testSecret, 60)
	_, err := tm.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims := &UserClaims{UserID: "zzz"}
	_, err = claims.SubjectID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
