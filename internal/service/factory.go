package service

import (
	"log/slog"

	"firmdesk.app/intake/internal/mapping"
	"firmdesk.app/intake/internal/queue"
)

type Services struct {
	stores    StoreProvider
	txRunner  TxRunner
	mapper    mapping.Mapper
	providers ProviderRegistry
	notifier  queue.Notifier
	jobsCfg   JobsConfig
	logger    *slog.Logger
}

func NewServices(stores StoreProvider, txRunner TxRunner, mapper mapping.Mapper, providers ProviderRegistry, notifier queue.Notifier, jobsCfg JobsConfig, logger *slog.Logger) *Services {
	return &Services{
		stores:    stores,
		txRunner:  txRunner,
		mapper:    mapper,
		providers: providers,
		notifier:  notifier,
		jobsCfg:   jobsCfg,
		logger:    logger,
	}
}

func (s *Services) Ingestion() IngestionService {
	return NewIngestionService(s.stores, s.txRunner, s.mapper, s.providers, s.logger)
}

func (s *Services) Jobs() JobService {
	return NewJobService(s.stores, s.txRunner, s.notifier, s.jobsCfg, s.logger)
}

func (s *Services) DLQ() DLQService {
	return NewDLQService(s.stores, s.txRunner, s.notifier, s.jobsCfg.DefaultMaxAttempts, s.logger)
}
