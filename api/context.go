package api

import (
	"context"

	"github.com/portfolio-site/backend/auth"
)

type keyType string

const capabilityKey keyType = "capability"

// ctxWithCapability adds the caller's capability to the context
func ctxWithCapability(ctx context.Context, c auth.Capability) context.Context {
	return context.WithValue(ctx, capabilityKey, c)
}

// ctxGetCapability returns the caller's capability, anonymous when none was set.
func ctxGetCapability(ctx context.Context) auth.Capability {
	if c, ok := ctx.Value(capabilityKey).(auth.Capability); ok {
		return c
	}
	return auth.Anonymous()
}
