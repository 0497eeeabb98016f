//go:build !linux

package source

import (
	"errors"

	"wrmon/internal/models"
)

func statfsUsage(string) (models.PartitionUsage, error) {
	return models.PartitionUsage{}, errors.New("statfs is only supported on linux")
}
