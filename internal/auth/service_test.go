package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"time"

	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newKey() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	Expect(err).NotTo(HaveOccurred())
	return key
}

var _ = Describe("JWTTokenGenerator", func() {
	var (
		key    *rsa.PrivateKey
		tokens *auth.JWTTokenGenerator
		now    time.Time
		hr     actor.Actor
	)

	BeforeEach(func() {
		key = newKey()
		now = time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC)
		tokens = auth.NewJWTTokenGenerator(key, &key.PublicKey, 15*time.Minute).
			WithClock(func() time.Time { return now })
		hr = actor.Actor{UserID: 3, CompanyID: 1, Role: actor.RoleHR}
	})

	It("round trips the actor", func() {
		token, err := tokens.GenerateAccessToken(hr)
		Expect(err).NotTo(HaveOccurred())

		claims, err := tokens.ValidateToken(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Actor()).To(Equal(hr))
		Expect(claims.Subject).To(Equal("3"))
		Expect(claims.Issuer).To(Equal("leave-management"))
		Expect(claims.ExpiresAt.Time).To(Equal(now.Add(15 * time.Minute)))
	})

	It("refuses to sign an actor outside the role enum", func() {
		_, err := tokens.GenerateAccessToken(actor.Actor{UserID: 3, CompanyID: 1, Role: "OWNER"})
		Expect(err).To(MatchError(auth.ErrInvalidActor))
	})

	It("refuses to sign without a company", func() {
		_, err := tokens.GenerateAccessToken(actor.Actor{UserID: 3, Role: actor.RoleHR})
		Expect(err).To(MatchError(auth.ErrInvalidActor))
	})

	It("reports expiry separately from other failures", func() {
		token, err := tokens.GenerateAccessToken(hr)
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(16 * time.Minute)
		_, err = tokens.ValidateToken(token)
		Expect(err).To(MatchError(auth.ErrTokenExpired))
	})

	It("rejects tokens signed by another key", func() {
		other := auth.NewJWTTokenGenerator(newKey(), nil, time.Minute)
		token, err := other.GenerateAccessToken(hr)
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.ValidateToken(token)
		Expect(err).To(MatchError(auth.ErrInvalidToken))
	})

	It("rejects HMAC tokens", func() {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
			UserID:    3,
			CompanyID: 1,
			Role:      actor.RoleAdmin,
		}).SignedString([]byte("shared-secret"))
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.ValidateToken(token)
		Expect(err).To(MatchError(auth.ErrInvalidToken))
	})

	It("rejects garbage", func() {
		_, err := tokens.ValidateToken("not.a.token")
		Expect(err).To(MatchError(auth.ErrInvalidToken))
	})

	It("cannot sign when built verify-only", func() {
		verifier := auth.NewJWTTokenGenerator(nil, &key.PublicKey, 0)
		_, err := verifier.GenerateAccessToken(hr)
		Expect(err).To(HaveOccurred())
		Expect(verifier.AccessTokenTTL).To(Equal(15 * time.Minute))
	})

	It("describes issued tokens", func() {
		resp, err := tokens.Issue(hr)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.TokenType).To(Equal("Bearer"))
		Expect(resp.ExpiresIn).To(BeEquivalentTo(900))
		Expect(resp.Role).To(Equal(actor.RoleHR))
		Expect(resp.AccessToken).NotTo(BeEmpty())
	})
})
