package store

import (
	"github.com/Zay2006/Slacking-Capstone/core/db"
)

type Stores struct {
	conn db.DBTX
}

func NewStores(conn db.DBTX) *Stores {
	return &Stores{conn: conn}
}

func (s *Stores) Available() bool {
	return s.conn != nil
}

func (s *Stores) Roadmaps() RoadmapStore {
	if s.conn == nil {
		return unavailableRoadmaps{}
	}
	return newRoadmapStore(s.conn)
}

func (s *Stores) Reminders() ReminderStore {
	if s.conn == nil {
		return unavailableReminders{}
	}
	return newReminderStore(s.conn)
}

func (s *Stores) IssueAudit() IssueAuditStore {
	if s.conn == nil {
		return unavailableIssueAudit{}
	}
	return newIssueAuditStore(s.conn)
}
