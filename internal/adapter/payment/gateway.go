// Package payment issues references for donations. Capture happens outside
// the workflow; the engine only records the reference.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Gateway struct {
	prefix string
	newID  func() (uuid.UUID, error)
}

func NewGateway(prefix string) *Gateway {
	return &Gateway{prefix: prefix, newID: uuid.NewV7}
}

// NewReference returns an opaque, time-ordered payment reference.
func (g *Gateway) NewReference(ctx context.Context, amount int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if amount <= 0 {
		return "", fmt.Errorf("payment reference: amount must be positive, got %d", amount)
	}
	u, err := g.newID()
	if err != nil {
		return "", fmt.Errorf("payment reference: %w", err)
	}
	ref := strings.ReplaceAll(u.String(), "-", "")
	if g.prefix == "" {
		return ref, nil
	}
	return g.prefix + "-" + ref, nil
}
