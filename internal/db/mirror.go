package db

import (
	"context"
	"log/slog"

	"wrmon/internal/board"
)

// Mirror copies the board's latest values into the repository whenever they
// change, so another process can read them. Values published before Mirror
// started are saved on entry. It returns when ctx is done.
func (r *Repository) Mirror(ctx context.Context, b *board.Board, logger *slog.Logger) {
	changed, cancel := b.Subscribe()
	defer cancel()
	var netVer, storageVer uint64
	for {
		if s, ver := b.Network.Load(); ver != netVer {
			if err := r.SaveNetwork(ctx, s); err != nil {
				logger.Error("mirror network sample", "err", err)
			}
			netVer = ver
		}
		if rep, ver := b.Storage.Load(); ver != storageVer {
			if err := r.SaveStorage(ctx, rep); err != nil {
				logger.Error("mirror storage report", "err", err)
			}
			storageVer = ver
		}
		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
	}
}
