package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/store"
)

var (
	ErrRoadmapNotFound     = errors.New("roadmap not found")
	ErrDatabaseUnavailable = errors.New("database unavailable")
)

// issueAuditLimit bounds how many flagged issues are read and summarized.
const issueAuditLimit = 100

// IssueAudit is the result of the backlog audit.
type IssueAudit struct {
	Summary  string
	Findings []model.IssueFinding
}

// RoadmapReport is a model-written answer about one roadmap.
type RoadmapReport struct {
	ProjectID string
	// Name is the roadmap document's data.name, empty when it has none.
	Name string
	Text string
}

// Title names the project the way users know it.
func (r *RoadmapReport) Title() string {
	if r.Name == "" || r.Name == r.ProjectID {
		return r.ProjectID
	}
	return fmt.Sprintf("%s (%s)", r.Name, r.ProjectID)
}

// AuditService produces model-written analyses of roadmaps and of the issue
// backlog.
type AuditService interface {
	AuditRoadmap(ctx context.Context, projectID string) (*RoadmapReport, error)
	DescribeRoadmap(ctx context.Context, projectID string) (*RoadmapReport, error)
	AuditIssues(ctx context.Context) (*IssueAudit, error)
}

type auditService struct {
	roadmaps RoadmapGateway
	issues   store.IssueAuditStore
	gateway  llm.Gateway
}

func NewAuditService(roadmaps RoadmapGateway, issues store.IssueAuditStore, gateway llm.Gateway) AuditService {
	return &auditService{roadmaps: roadmaps, issues: issues, gateway: gateway}
}

func (s *auditService) AuditRoadmap(ctx context.Context, projectID string) (*RoadmapReport, error) {
	roadmap, err := s.roadmap(ctx, projectID)
	if err != nil {
		return nil, err
	}
	report := &RoadmapReport{ProjectID: projectID, Name: roadmap.Name()}

	prompt := fmt.Sprintf(
		"Audit the roadmap for project %q. Identify gaps, risks, missing owners or dates, and "+
			"inconsistencies, then list your recommendations.\n\nRoadmap JSON:\n%s",
		report.Title(), string(roadmap.Data),
	)
	report.Text = s.gateway.Complete(ctx, llm.TaskAudit, prompt)
	return report, nil
}

func (s *auditService) DescribeRoadmap(ctx context.Context, projectID string) (*RoadmapReport, error) {
	roadmap, err := s.roadmap(ctx, projectID)
	if err != nil {
		return nil, err
	}
	report := &RoadmapReport{ProjectID: projectID, Name: roadmap.Name()}

	prompt := fmt.Sprintf(
		"Describe the project %q for a teammate who has never seen it: its goal, its main "+
			"milestones and where it stands today. Keep it under 200 words.\n\nRoadmap JSON:\n%s",
		report.Title(), string(roadmap.Data),
	)
	report.Text = s.gateway.Complete(ctx, llm.TaskDefault, prompt)
	return report, nil
}

// AuditIssues finds issues missing a description or a theme and asks the
// model to summarize them. No findings means no model call.
func (s *auditService) AuditIssues(ctx context.Context) (*IssueAudit, error) {
	findings, err := s.issues.FindIncomplete(ctx, issueAuditLimit)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return nil, ErrDatabaseUnavailable
		}
		slog.ErrorContext(ctx, "issue audit query failed", "error", err)
		return nil, fmt.Errorf("querying incomplete issues: %w", err)
	}

	if len(findings) == 0 {
		return &IssueAudit{}, nil
	}

	var b strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&b, "- [%s] %q (workspace: %s, pillar: %s): %s\n",
			f.IssueID, f.Title, orNone(f.Workspace), orNone(f.Pillar), strings.Join(f.Problems(), ", "))
	}

	prompt := fmt.Sprintf(
		"These %d issues are missing descriptions or themes. Summarize the pattern: which workspaces "+
			"and pillars are most affected, what the likely cause is, and what the team should do first.\n\n%s",
		len(findings), b.String(),
	)

	return &IssueAudit{
		Summary:  s.gateway.Complete(ctx, llm.TaskAudit, prompt),
		Findings: findings,
	}, nil
}

func (s *auditService) roadmap(ctx context.Context, projectID string) (*model.Roadmap, error) {
	if !s.roadmaps.Available() {
		return nil, ErrDatabaseUnavailable
	}
	roadmap := s.roadmaps.Get(ctx, projectID)
	if roadmap == nil {
		return nil, ErrRoadmapNotFound
	}
	return roadmap, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
