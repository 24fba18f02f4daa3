package service_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/service"
	"github.com/Zay2006/Slacking-Capstone/internal/store"
)

var _ = Describe("AuditService", func() {
	var (
		ctx      context.Context
		roadmaps *mockRoadmapStore
		issues   *mockIssueAuditStore
		gateway  *mockGateway
		svc      service.AuditService
	)

	BeforeEach(func() {
		ctx = context.Background()
		roadmaps = &mockRoadmapStore{}
		issues = &mockIssueAuditStore{}
		gateway = &mockGateway{}
		svc = service.NewAuditService(
			service.NewRoadmapGateway(roadmaps, &mockTxRunner{}, true),
			issues,
			gateway,
		)
	})

	Describe("AuditRoadmap", func() {
		It("reports a missing roadmap without calling the model", func() {
			_, err := svc.AuditRoadmap(ctx, "ghost")

			Expect(err).To(MatchError(service.ErrRoadmapNotFound))
			Expect(gateway.prompts).To(BeEmpty())
		})

		It("sends the roadmap JSON to the model with the audit task", func() {
			roadmaps.getFn = func(_ context.Context, projectID string) (*model.Roadmap, error) {
				return &model.Roadmap{ProjectID: projectID, Data: json.RawMessage(`{"milestones":["beta"]}`)}, nil
			}
			gateway.completeFn = func(_ context.Context, task llm.Task, _ string) string {
				Expect(task).To(Equal(llm.TaskAudit))
				return "Looks risky."
			}

			out, err := svc.AuditRoadmap(ctx, "apollo")

			Expect(err).NotTo(HaveOccurred())
			Expect(out.Text).To(Equal("Looks risky."))
			Expect(out.Title()).To(Equal("apollo"))
			Expect(gateway.prompts[0]).To(ContainSubstring(`"milestones":["beta"]`))
		})

		It("reports an unconfigured database", func() {
			svc = service.NewAuditService(service.NewRoadmapGateway(roadmaps, &mockTxRunner{}, false), issues, gateway)

			_, err := svc.AuditRoadmap(ctx, "apollo")

			Expect(err).To(MatchError(service.ErrDatabaseUnavailable))
		})
	})

	Describe("DescribeRoadmap", func() {
		It("reports a missing roadmap", func() {
			_, err := svc.DescribeRoadmap(ctx, "ghost")

			Expect(err).To(MatchError(service.ErrRoadmapNotFound))
		})

		It("names the project from the roadmap document", func() {
			roadmaps.getFn = func(_ context.Context, projectID string) (*model.Roadmap, error) {
				return &model.Roadmap{ProjectID: projectID, Data: json.RawMessage(`{"name":"Apollo","goal":"moon"}`)}, nil
			}
			gateway.completeFn = func(context.Context, llm.Task, string) string { return "A trip." }

			out, err := svc.DescribeRoadmap(ctx, "apollo")

			Expect(err).NotTo(HaveOccurred())
			Expect(out.Name).To(Equal("Apollo"))
			Expect(out.Title()).To(Equal("Apollo (apollo)"))
			Expect(out.Text).To(Equal("A trip."))
			Expect(gateway.prompts[0]).To(ContainSubstring(`"Apollo (apollo)"`))
		})
	})

	Describe("AuditIssues", func() {
		It("returns no findings without calling the model", func() {
			audit, err := svc.AuditIssues(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(audit.Findings).To(BeEmpty())
			Expect(gateway.prompts).To(BeEmpty())
		})

		It("summarizes flagged issues", func() {
			issues.findFn = func(context.Context, int) ([]model.IssueFinding, error) {
				return []model.IssueFinding{
					{IssueID: "7", Title: "Login flakes", Workspace: "Web", MissingDescription: true, MissingTheme: true},
				}, nil
			}
			gateway.completeFn = func(context.Context, llm.Task, string) string { return "Web needs love." }

			audit, err := svc.AuditIssues(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(audit.Summary).To(Equal("Web needs love."))
			Expect(audit.Findings).To(HaveLen(1))
			Expect(gateway.prompts[0]).To(ContainSubstring("no description, no theme"))
			Expect(gateway.prompts[0]).To(ContainSubstring("pillar: none"))
		})

		It("maps an unavailable store to ErrDatabaseUnavailable", func() {
			issues.findFn = func(context.Context, int) ([]model.IssueFinding, error) {
				return nil, store.ErrUnavailable
			}

			_, err := svc.AuditIssues(ctx)

			Expect(err).To(MatchError(service.ErrDatabaseUnavailable))
		})

		It("wraps query errors", func() {
			issues.findFn = func(context.Context, int) ([]model.IssueFinding, error) {
				return nil, errors.New("relation \"issues\" does not exist")
			}

			_, err := svc.AuditIssues(ctx)

			Expect(err).To(MatchError(ContainSubstring("querying incomplete issues")))
		})
	})
})
