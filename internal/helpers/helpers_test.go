package helpers

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tourly/internal/models"
)

var testSecret = []byte("not-a-real-secret-but-long-enough")

func signToken(t *testing.T, kid string, secret []byte, claims CustomClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func testValidator() *TokenValidator {
	jwks := keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		"test": keyfunc.NewGivenHMAC(testSecret, keyfunc.GivenKeyOptions{Algorithm: jwt.SigningMethodHS256.Alg()}),
	})
	return NewTokenValidatorFromJWKS(jwks)
}

func TestValidateToken(t *testing.T) {
	v := testValidator()
	sub := uuid.New().String()

	claims := CustomClaims{Email: "kofi@example.com"}
	claims.Subject = sub
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))

	got, err := v.ValidateToken(signToken(t, "test", testSecret, claims))
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got.Subject != sub || got.Email != "kofi@example.com" {
		t.Errorf("unexpected claims: %+v", got)
	}

	expired := claims
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	if _, err := v.ValidateToken(signToken(t, "test", testSecret, expired)); err == nil {
		t.Error("expired token accepted")
	}
	if _, err := v.ValidateToken(signToken(t, "test", []byte("some-other-secret-entirely"), claims)); err == nil {
		t.Error("token signed with the wrong key accepted")
	}
	if _, err := v.ValidateToken(signToken(t, "unknown", testSecret, claims)); err == nil {
		t.Error("token with an unknown key id accepted")
	}
	if _, err := v.ValidateToken("garbage"); err == nil {
		t.Error("malformed token accepted")
	}
}

func TestGoogleCalendarURL(t *testing.T) {
	link, err := GoogleCalendarURL("Old Quarter Walk", "2025-12-31", "Your booking", "Hanoi")
	if err != nil {
		t.Fatalf("GoogleCalendarURL: %v", err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", link, err)
	}
	if !strings.HasPrefix(link, "https://calendar.google.com/calendar/render?") {
		t.Errorf("unexpected base: %s", link)
	}
	q := u.Query()
	if q.Get("dates") != "20251231/20260101" {
		t.Errorf("all-day event should end on the next day, got %q", q.Get("dates"))
	}
	if q.Get("text") != "Old Quarter Walk" || q.Get("action") != "TEMPLATE" || q.Get("location") != "Hanoi" {
		t.Errorf("unexpected query: %v", q)
	}

	if _, err := GoogleCalendarURL("x", "31/12/2025", "", ""); err == nil {
		t.Error("malformed date accepted")
	}
}

func TestIsPasswordStrong(t *testing.T) {
	tests := map[string]bool{
		"Str0ng!pass":   true,
		"Sh0rt!":        false,
		"nouppercase1!": false,
		"NOLOWER1!":     false,
		"NoDigits!!":    false,
		"NoSpecial12":   false,
	}
	for pw, want := range tests {
		if got := IsPasswordStrong(pw); got != want {
			t.Errorf("IsPasswordStrong(%q) = %v, want %v", pw, got, want)
		}
	}
}

func TestIdentity(t *testing.T) {
	id := NewIdentity(uuid.New(), "a@example.com", "")
	if !id.IsTraveler() || id.IsGuide() || id.IsAdmin() {
		t.Errorf("empty role should default to traveler, got %q", id.Role)
	}
	if !id.IsOwner(id.UserID) || id.IsOwner(uuid.New()) {
		t.Error("ownership check is wrong")
	}
	if !id.HasRole(models.RoleAdmin, models.RoleUser) || id.HasRole(models.RoleTourGuide) {
		t.Error("HasRole is wrong")
	}

	var anon Identity
	if anon.Authenticated() || anon.IsOwner(uuid.Nil) {
		t.Error("the zero identity owns nothing")
	}
}

func TestResponses(t *testing.T) {
	ok := SuccessResponse("x", "done")
	if !ok.Success || ok.Data != "x" || ok.Message != "done" {
		t.Errorf("unexpected success response: %+v", ok)
	}
	bad := ErrorResponse("nope")
	if bad.Success || bad.Error != "nope" {
		t.Errorf("unexpected error response: %+v", bad)
	}
	page := PaginatedResponse([]int{1}, 2, 10, 11)
	if !page.Success || page.Page != 2 || page.Limit != 10 || page.Total != 11 {
		t.Errorf("unexpected paginated response: %+v", page)
	}
}
