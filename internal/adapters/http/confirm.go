package httpadapter

import "context"

type confirmContextKey struct{}

func withConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmContextKey{}, confirmed)
}

// RequestConfirmer answers confirmation prompts from the request that asked
// for the action. Deletes pass ?confirm=true to go through.
type RequestConfirmer struct{}

func (RequestConfirmer) Confirm(ctx context.Context, _ string) (bool, error) {
	confirmed, _ := ctx.Value(confirmContextKey{}).(bool)
	return confirmed, nil
}
