package utils

import (
	"testing"
	"time"

	"agrispray/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"6", 6},
		{"6 months", 6},
		{"12-month", 12},
		{"monthly", 0},
		{"", 0},
		{"-3", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DigitsOnly(tt.in), tt.in)
	}
}

func TestPasswordHashing(t *testing.T) {
	SetBcryptCost(bcrypt.MinCost)

	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret", time.Hour, 2*time.Hour)
	id := primitive.NewObjectID()

	pair, err := GenerateTokenPair(id, "farmer@example.com", models.RoleFarmer)
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, models.RoleFarmer, claims.Role)

	_, err = ValidateToken(pair.RefreshToken)
	assert.Error(t, err, "refresh token must not be accepted as access token")

	refresh, err := ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, id, refresh.UserID)

	_, err = ValidateToken(pair.AccessToken + "x")
	assert.Error(t, err)
}

func TestValidateStructMessages(t *testing.T) {
	req := models.BookServiceRequest{Field: "North plot", Address: "Village road", Pincode: "12345", SpraysCount: 0}
	err := ValidateStruct(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pincode must be a 6 digit postal code")

	req.Pincode = "560001"
	assert.NoError(t, ValidateStruct(req))

	reg := models.RegisterRequest{Name: "Asha", Email: "asha@example.com", Phone: "9876543210", Password: "secret1", Type: "landlord"}
	err = ValidateStruct(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type must be one of")

	fb := models.FeedbackRequest{Rating: 6}
	err = ValidateStruct(fb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rating must be at most 5")
}
