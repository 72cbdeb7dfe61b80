package repository

import (
	"context"
	"errors"

	"SmartMoney/internal/domain/models"
	drepo "SmartMoney/internal/domain/repository"
)

// MultiPublisher fans a finished run out to every sink and joins their errors.
type MultiPublisher []drepo.ResultPublisher

func (m MultiPublisher) PublishResult(ctx context.Context, res *models.ScreeningResult) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishResult(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
