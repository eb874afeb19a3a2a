package plugins

import (
	"context"

	"github.com/google/uuid"

	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
)

func registerToken(reg *plugin.Registry) error {
	token := uuid.NewString()
	return reg.Register(Token, "get_token", func(context.Context, any, plugin.Args) (any, error) {
		return token, nil
	})
}
