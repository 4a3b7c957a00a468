package notification

import (
	log "github.com/sirupsen/logrus"

	"barangay-services-backend/config"
	"barangay-services-backend/db"
	"barangay-services-backend/lib/smtp"
	usersstore "barangay-services-backend/lib/users/store"
)

// Provider delivers best-effort notifications to residents. Failures are
// logged and never propagate into the lifecycle engine.
type Provider interface {
	Notify(userID, event, message string)
}

var Instance Provider

func NewHandler() {
	Instance = &impl{
		usersStore: usersstore.NewInstance(db.DB),
		smtpClient: smtp.Instance,
		emailFrom:  config.Conf.Smtp.EmailFrom,
	}
}

type impl struct {
	usersStore usersstore.Provider
	smtpClient smtp.Provider
	emailFrom  string
}

func (i impl) Notify(userID, event, message string) {
	go i.send(userID, event, message)
}

func (i impl) send(userID, event, message string) {
	logger := log.
		WithField("user_id", userID).
		WithField("event", event)
	user, err := i.usersStore.GetByID(userID)
	if err != nil {
		logger.WithError(err).Error("notification skipped, user lookup failed")
		return
	}
	if user == nil || user.Email == "" {
		logger.Warn("notification skipped, user has no email")
		return
	}
	err = i.smtpClient.SendEMail(i.emailFrom, user.Email, message, event)
	if err != nil {
		logger.WithError(err).Error("notification send failed")
	}
}
