package service

import (
	"time"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/internal/store"
)

type Services struct {
	stores    *store.Stores
	txRunner  TxRunner
	gateway   llm.Gateway
	scheduler Scheduler
	location  *time.Location
	now       func() time.Time
}

func NewServices(stores *store.Stores, txRunner TxRunner, gateway llm.Gateway, scheduler Scheduler, location *time.Location, now func() time.Time) *Services {
	if now == nil {
		now = time.Now
	}
	return &Services{
		stores:    stores,
		txRunner:  txRunner,
		gateway:   gateway,
		scheduler: scheduler,
		location:  location,
		now:       now,
	}
}

func (s *Services) Roadmaps() RoadmapGateway {
	return NewRoadmapGateway(s.stores.Roadmaps(), s.txRunner, s.stores.Available())
}

func (s *Services) Audit() AuditService {
	return NewAuditService(s.Roadmaps(), s.stores.IssueAudit(), s.gateway)
}

func (s *Services) Reminders() ReminderService {
	parser := NewTimeParser(s.gateway, s.location, s.now)
	return NewReminderService(parser, s.scheduler, s.location)
}
