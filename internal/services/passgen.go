package services

import (
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var _ domain.PassGenerator = (*TOTPPassGenerator)(nil)

// TOTPPassGenerator derives each pass from a freshly generated secret, so
// consecutive passes are unrelated.
type TOTPPassGenerator struct {
	issuer string
	now    func() time.Time
}

func NewTOTPPassGenerator() *TOTPPassGenerator {
	return &TOTPPassGenerator{issuer: "line-assistant", now: time.Now}
}

func (g *TOTPPassGenerator) Generate() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      g.issuer,
		AccountName: "return-order",
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}

	pass, err := totp.GenerateCode(key.Secret(), g.now())
	if err != nil {
		return "", fmt.Errorf("failed to generate pass: %w", err)
	}
	return pass, nil
}
