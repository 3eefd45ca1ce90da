package user

import (
	"context"
	"time"

	"github.com/docmaster/docmaster/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service sending its emails synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &serviceMock{
		service: service{
			repo:     repo,
			mailSvc:  mailSvc,
			tokenGen: newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
			now:      time.Now,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.Active() {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
