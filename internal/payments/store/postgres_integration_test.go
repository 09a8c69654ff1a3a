//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lifeline/pkg/testutil/containers"
)

func TestPostgresPayments(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	runPaymentContract(t, func(t *testing.T) paymentStore {
		require.NoError(t, pg.TruncateTables(context.Background(), "payments"))
		return NewPostgres(pg.Pool)
	})
}
