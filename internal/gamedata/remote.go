package gamedata

import (
	"context"

	"goal-challenge-bot/internal/pkg/disk"
)

// DiskRemote adapts *disk.Client to the RemoteStore interface.
type DiskRemote struct {
	Client *disk.Client
}

func (d DiskRemote) Download(ctx context.Context, path string) ([]byte, error) {
	return d.Client.Download(ctx, path)
}

func (d DiskRemote) Upload(ctx context.Context, data []byte, path string, overwrite bool) error {
	return d.Client.Upload(ctx, data, path, overwrite)
}

func (d DiskRemote) Copy(ctx context.Context, from, to string) error {
	return d.Client.Copy(ctx, from, to)
}

func (d DiskRemote) Stat(ctx context.Context, path string) (*Info, error) {
	info, err := d.Client.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Info{Modified: info.Modified}, nil
}

// DiskClassifier wires the disk error taxonomy into the manager.
func DiskClassifier() ErrorClassifier {
	return ErrorClassifier{
		IsNotFound: disk.IsNotFound,
		IsLocked:   disk.IsLocked,
	}
}
