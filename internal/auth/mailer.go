package auth

import (
	"context"

	"gestionexus-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, user *models.User, link string) error
}

// LogMailer writes the reset link to the log instead of sending mail.
type LogMailer struct {
	Log logrus.FieldLogger
}

func (m LogMailer) SendPasswordReset(_ context.Context, user *models.User, link string) error {
	m.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
		"link":    link,
	}).Info("password reset requested")
	return nil
}
