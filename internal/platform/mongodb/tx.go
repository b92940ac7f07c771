package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

// Ensure Client implements store.Transactor
var _ store.Transactor = (*Client)(nil)

// RunInTx runs fn in a multi-document transaction when transactions are
// enabled, and directly otherwise. Driver calls made with the context fn
// receives join the session. A nested call joins the outer transaction.
func (c *Client) RunInTx(ctx context.Context, fn store.TxFn) error {
	if !c.transactions || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	log := logger.FromContextOrDefault(ctx, c.logger)

	session, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: failed to start session: %v", store.ErrTransactionFailed, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		log.Debug("transaction aborted", slog.String("error", err.Error()))
		return err
	}
	return nil
}
