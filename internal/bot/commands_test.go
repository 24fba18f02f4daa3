package bot_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/internal/bot"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/platform"
	"github.com/Zay2006/Slacking-Capstone/internal/service"
)

var _ = Describe("Commands", func() {
	var (
		ctx      context.Context
		now      time.Time
		client   *mockPlatform
		gateway  *mockGateway
		roadmaps *mockRoadmapGateway
		issues   *mockIssueAuditStore
		sched    *service.TimerScheduler
		b        *bot.Bot
	)

	command := func(name, text string) model.Command {
		return model.Command{Name: name, Text: text, UserID: "U1", ChannelID: "C1", TeamID: "T1"}
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }

		client = &mockPlatform{}
		gateway = &mockGateway{}
		roadmaps = &mockRoadmapGateway{available: true}
		issues = &mockIssueAuditStore{}
		sched = service.NewTimerScheduler(client, nil, clock)

		b = bot.New(bot.Config{
			Client:    client,
			Gateway:   gateway,
			Roadmaps:  roadmaps,
			Audit:     service.NewAuditService(roadmaps, issues, gateway),
			Reminders: service.NewReminderService(service.NewTimeParser(gateway, time.UTC, clock), sched, time.UTC),
			BotUserID: "UBOT",
		})
	})

	AfterEach(func() {
		sched.Stop()
	})

	It("rejects unknown commands", func() {
		Expect(b.HandleCommand(ctx, command("/dance", ""))).To(Succeed())

		Expect(client.last().Kind).To(Equal("ephemeral"))
		Expect(client.last().Text).To(ContainSubstring("Unknown command"))
	})

	Describe("/audit", func() {
		It("reports a missing roadmap", func() {
			Expect(b.HandleCommand(ctx, command("/audit", "ghost"))).To(Succeed())

			Expect(client.last().Kind).To(Equal("update"))
			Expect(client.last().Text).To(Equal("No roadmap data found for project `ghost`."))
			Expect(gateway.calls).To(BeEmpty())
		})

		It("replaces the placeholder with the audit", func() {
			roadmaps.getFn = func(_ context.Context, projectID string) *model.Roadmap {
				return &model.Roadmap{ProjectID: projectID, Data: json.RawMessage(`{"name":"Apollo"}`)}
			}
			gateway.completeFn = func(context.Context, llm.Task, string) string { return "Two milestones lack owners." }

			Expect(b.HandleCommand(ctx, command("/audit", "apollo"))).To(Succeed())

			msgs := client.all()
			Expect(msgs[0].Kind).To(Equal("post"))
			Expect(msgs[0].Text).To(ContainSubstring("Auditing the roadmap"))
			Expect(client.last().Kind).To(Equal("update"))
			Expect(client.last().Text).To(ContainSubstring("Two milestones lack owners."))
			Expect(client.last().Text).To(HavePrefix("Roadmap audit: Apollo (apollo)"))
			Expect(gateway.calls).To(Equal([]llm.Task{llm.TaskAudit}))
		})

		It("says so when the database is not configured", func() {
			roadmaps.available = false

			Expect(b.HandleCommand(ctx, command("/audit", "apollo"))).To(Succeed())

			Expect(client.last().Text).To(ContainSubstring("isn't configured"))
		})

		Context("without a project id", func() {
			It("reports a clean backlog", func() {
				Expect(b.HandleCommand(ctx, command("/audit", ""))).To(Succeed())

				Expect(client.last().Text).To(ContainSubstring("No issues need attention"))
			})

			It("summarizes and itemizes flagged issues, at most 25", func() {
				issues.findFn = func(context.Context, int) ([]model.IssueFinding, error) {
					findings := make([]model.IssueFinding, 30)
					for i := range findings {
						findings[i] = model.IssueFinding{IssueID: "1", Title: "Untitled", MissingTheme: true}
					}
					return findings, nil
				}
				gateway.completeFn = func(context.Context, llm.Task, string) string { return "Themes are missing everywhere." }

				Expect(b.HandleCommand(ctx, command("/audit", ""))).To(Succeed())

				Expect(client.last().Text).To(ContainSubstring("30 issues need attention"))
				Expect(client.last().Text).To(ContainSubstring("Themes are missing everywhere."))
			})

			It("reports query failures", func() {
				issues.findFn = func(context.Context, int) ([]model.IssueFinding, error) {
					return nil, errors.New("relation does not exist")
				}

				Expect(b.HandleCommand(ctx, command("/audit", ""))).To(Succeed())

				Expect(client.last().Text).To(ContainSubstring("couldn't run the backlog audit"))
			})
		})
	})

	Describe("/draft", func() {
		It("asks for input when empty", func() {
			Expect(b.HandleCommand(ctx, command("/draft", "  "))).To(Succeed())

			Expect(client.last().Kind).To(Equal("ephemeral"))
			Expect(client.last().Text).To(HavePrefix("Usage: /draft"))
		})

		It("posts a placeholder and updates it with the draft", func() {
			gateway.completeFn = func(context.Context, llm.Task, string) string { return "Dear team,\n\nThanks!" }

			Expect(b.HandleCommand(ctx, command("/draft", "a thank-you note"))).To(Succeed())

			msgs := client.all()
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Text).To(ContainSubstring("Working on your draft"))
			Expect(msgs[1].Kind).To(Equal("update"))
			Expect(msgs[1].Text).To(ContainSubstring("Dear team,"))
			Expect(gateway.calls).To(Equal([]llm.Task{llm.TaskDraft}))
		})

		It("falls back to an ephemeral reply when the placeholder can't be posted", func() {
			client.postErr = errors.New("not_in_channel")

			Expect(b.HandleCommand(ctx, command("/draft", "a note"))).To(Succeed())

			Expect(client.last().Kind).To(Equal("ephemeral"))
			Expect(client.last().Text).To(ContainSubstring("model answer"))
		})
	})

	Describe("/task", func() {
		It("chains an analysis pass into a generation pass", func() {
			gateway.completeFn = func(_ context.Context, _ llm.Task, prompt string) string {
				if strings.HasPrefix(prompt, "Analyze") {
					return "ANALYSIS"
				}
				return "1. Do it"
			}

			Expect(b.HandleCommand(ctx, command("/task", "migrate the billing service"))).To(Succeed())

			Expect(gateway.prompts).To(HaveLen(2))
			Expect(gateway.prompts[1]).To(ContainSubstring("ANALYSIS"))
			Expect(client.last().Text).To(ContainSubstring("1. Do it"))
		})
	})

	Describe("/convo", func() {
		DescribeTable("limit parsing",
			func(arg string, want int) {
				Expect(bot.ParseConvoLimit(arg)).To(Equal(want))
			},
			Entry("missing", "", 50),
			Entry("zero", "0", 50),
			Entry("negative", "-5", 50),
			Entry("not a number", "lots", 50),
			Entry("in range", "30", 30),
			Entry("at the cap", "100", 100),
			Entry("over the cap", "150", 100),
		)

		It("requests the clamped limit and summarizes oldest first", func() {
			var gotLimit int
			client.historyFn = func(_ context.Context, _ string, limit int) ([]platform.HistoryMessage, error) {
				gotLimit = limit
				return []platform.HistoryMessage{
					{UserID: "U1", Text: "first"},
					{UserID: "U2", Text: "second"},
					{UserID: "U1", Text: "third"},
					{UserID: "U2", Text: "  "},
				}, nil
			}
			client.userNameFn = func(_ context.Context, userID string) (string, error) {
				return map[string]string{"U1": "ada", "U2": "grace"}[userID], nil
			}

			Expect(b.HandleCommand(ctx, command("/convo", "150"))).To(Succeed())

			Expect(gotLimit).To(Equal(100))
			Expect(client.userNameHits).To(Equal(2))
			Expect(gateway.prompts[0]).To(ContainSubstring("ada: first\ngrace: second\nada: third\n"))
			Expect(client.last().Text).To(ContainSubstring("Conversation summary"))
		})

		It("explains when history can't be read", func() {
			client.historyFn = func(context.Context, string, int) ([]platform.HistoryMessage, error) {
				return nil, errors.New("not_in_channel")
			}

			Expect(b.HandleCommand(ctx, command("/convo", ""))).To(Succeed())

			Expect(client.last().Text).To(ContainSubstring("couldn't read this channel's history"))
			Expect(gateway.calls).To(BeEmpty())
		})

		It("uses the raw id when a name can't be resolved", func() {
			client.historyFn = func(context.Context, string, int) ([]platform.HistoryMessage, error) {
				return []platform.HistoryMessage{{UserID: "U9", Text: "hello"}}, nil
			}
			client.userNameFn = func(context.Context, string) (string, error) {
				return "", errors.New("user_not_found")
			}

			Expect(b.HandleCommand(ctx, command("/convo", "10"))).To(Succeed())

			Expect(gateway.prompts[0]).To(ContainSubstring("U9: hello"))
		})
	})

	Describe("/describe", func() {
		It("shows the overview without a project id", func() {
			roadmaps.listFn = func(context.Context) []model.RoadmapSummary {
				return []model.RoadmapSummary{{ProjectID: "apollo", Name: "Apollo"}}
			}

			Expect(b.HandleCommand(ctx, command("/describe", ""))).To(Succeed())

			Expect(client.last().Kind).To(Equal("ephemeral"))
			Expect(client.last().Text).To(Equal(service.Capabilities))
			Expect(client.last().Blocks).To(BeNumerically(">=", 4))
		})

		It("reports a missing roadmap", func() {
			Expect(b.HandleCommand(ctx, command("/describe", "ghost"))).To(Succeed())

			Expect(client.last().Text).To(ContainSubstring("No roadmap data found"))
		})

		It("titles the description with the roadmap's name", func() {
			roadmaps.getFn = func(_ context.Context, projectID string) *model.Roadmap {
				return &model.Roadmap{ProjectID: projectID, Data: json.RawMessage(`{"name":"Apollo"}`)}
			}
			gateway.completeFn = func(context.Context, llm.Task, string) string { return "Going to the moon." }

			Expect(b.HandleCommand(ctx, command("/describe", "apollo"))).To(Succeed())

			Expect(client.last().Kind).To(Equal("update"))
			Expect(client.last().Text).To(Equal("About Apollo (apollo)\n\nGoing to the moon."))
		})
	})

	Describe("/reminder", func() {
		BeforeEach(func() {
			gateway.completeFn = func(_ context.Context, _ llm.Task, prompt string) string {
				if strings.Contains(prompt, "Submit report") {
					return `{"time": "2024-01-02 15:00", "text": "Submit report"}`
				}
				return "No idea."
			}
		})

		It("confirms 'Submit report tomorrow at 3pm' with the display time", func() {
			Expect(b.HandleCommand(ctx, command("/reminder", "Submit report tomorrow at 3pm"))).To(Succeed())

			Expect(client.last().Kind).To(Equal("ephemeral"))
			Expect(client.last().Text).To(ContainSubstring("Submit report"))
			Expect(client.last().Text).To(ContainSubstring("Tuesday, January 2, 2024 at 3:00 PM"))
		})

		It("gives advice when no time can be found", func() {
			Expect(b.HandleCommand(ctx, command("/reminder", "water the plants"))).To(Succeed())

			Expect(client.last().Text).To(ContainSubstring("couldn't find a time"))
		})

		It("lists pending reminders", func() {
			Expect(b.HandleCommand(ctx, command("/reminder", "Submit report tomorrow at 3pm"))).To(Succeed())
			Expect(b.HandleCommand(ctx, command("/reminder", "list"))).To(Succeed())

			Expect(client.last().Text).To(ContainSubstring("Your reminders"))
			Expect(client.last().Text).To(ContainSubstring("Submit report"))
		})

		It("says when there is nothing to list", func() {
			Expect(b.HandleCommand(ctx, command("/reminder", "list"))).To(Succeed())

			Expect(client.last().Text).To(Equal("You have no pending reminders."))
		})

		It("deletes once and reports the second delete as an error", func() {
			Expect(b.HandleCommand(ctx, command("/reminder", "Submit report tomorrow at 3pm"))).To(Succeed())
			list, err := sched.List(ctx, "U1", "C1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			reminderID := list[0].ID

			Expect(b.HandleCommand(ctx, command("/reminder", "delete "+reminderID))).To(Succeed())
			Expect(client.last().Text).To(ContainSubstring("deleted"))

			Expect(b.HandleCommand(ctx, command("/reminder", "delete "+reminderID))).To(Succeed())
			Expect(client.last().Text).To(HavePrefix("Couldn't delete reminder `" + reminderID + "`"))
		})

		It("asks for an id when deleting without one", func() {
			Expect(b.HandleCommand(ctx, command("/reminder", "delete"))).To(Succeed())

			Expect(client.last().Text).To(HavePrefix("Usage: /reminder delete"))
		})

		It("shows usage when empty", func() {
			Expect(b.HandleCommand(ctx, command("/reminder", ""))).To(Succeed())

			Expect(client.last().Text).To(HavePrefix("Usage: /reminder"))
		})
	})
})
