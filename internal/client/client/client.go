package client

import (
	"context"

	"github.com/dmitrijs2005/accountlink/internal/client/models"
)

type Client interface {
	Login(ctx context.Context, phone, password string) (*models.LoginResult, error)
	GetUser(ctx context.Context, accountID, token string) (*models.Profile, error)
}
