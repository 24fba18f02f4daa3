package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/slack-go/slack"

	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/platform"
	"github.com/Zay2006/Slacking-Capstone/internal/service"
)

// Section text is capped by the platform at 3000 characters.
const maxSectionText = 2900

// maxListedIssues bounds the itemized part of the backlog audit.
const maxListedIssues = 25

func headerBlock(text string) slack.Block {
	return slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, text, true, false))
}

func sectionBlock(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

func contextBlock(text string) slack.Block {
	return slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, text, false, false))
}

func button(actionID, value, label string, style slack.Style) *slack.ButtonBlockElement {
	b := slack.NewButtonBlockElement(actionID, value, slack.NewTextBlockObject(slack.PlainTextType, label, true, false))
	if style != "" {
		b.WithStyle(style)
	}
	return b
}

// textSections splits long model output into section blocks on paragraph
// boundaries, hard-splitting paragraphs that alone exceed the limit.
func textSections(text string) []slack.Block {
	var (
		blocks  []slack.Block
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			blocks = append(blocks, sectionBlock(current.String()))
			current.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		for len(para) > maxSectionText {
			flush()
			cut := strings.LastIndex(para[:maxSectionText], "\n")
			if cut <= 0 {
				cut = maxSectionText
				for cut > 0 && !utf8.RuneStart(para[cut]) {
					cut--
				}
			}
			blocks = append(blocks, sectionBlock(para[:cut]))
			para = strings.TrimLeft(para[cut:], "\n")
		}
		if current.Len()+len(para)+2 > maxSectionText {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return blocks
}

// resultMessage is the standard layout for a model-written answer.
func resultMessage(title, body, footer string) platform.Message {
	blocks := []slack.Block{headerBlock(title)}
	blocks = append(blocks, textSections(body)...)
	if footer != "" {
		blocks = append(blocks, contextBlock(footer))
	}
	return platform.Message{Text: title + "\n\n" + body, Blocks: blocks}
}

func issueAuditMessage(audit *service.IssueAudit) platform.Message {
	blocks := []slack.Block{headerBlock("Issue backlog audit")}
	blocks = append(blocks, textSections(audit.Summary)...)
	blocks = append(blocks, slack.NewDividerBlock())

	shown := audit.Findings
	if len(shown) > maxListedIssues {
		shown = shown[:maxListedIssues]
	}

	var list strings.Builder
	fmt.Fprintf(&list, "*Flagged issues* (showing %d of %d)\n", len(shown), len(audit.Findings))
	for _, f := range shown {
		where := f.Workspace
		if f.Pillar != "" {
			where += " / " + f.Pillar
		}
		if where == "" {
			where = "unassigned"
		}
		fmt.Fprintf(&list, "• *%s* (%s): %s\n", f.Title, where, strings.Join(f.Problems(), ", "))
	}
	blocks = append(blocks, textSections(list.String())...)

	return platform.Message{
		Text:   fmt.Sprintf("Issue backlog audit: %d issues need attention.\n\n%s", len(audit.Findings), audit.Summary),
		Blocks: blocks,
	}
}

func reminderConfirmation(r *model.Reminder) platform.Message {
	text := fmt.Sprintf("✅ Reminder set: *%s*\n🕒 %s", r.Content, r.DisplayTime())
	section := sectionBlock(text)
	section.Accessory = slack.NewAccessory(button(model.ActionDeleteReminder, r.ID, "Delete", slack.StyleDanger))

	return platform.Message{
		Text: fmt.Sprintf("Reminder set: %s on %s", r.Content, r.DisplayTime()),
		Blocks: []slack.Block{
			section,
			contextBlock(fmt.Sprintf("Reminder ID: `%s`", r.ID)),
		},
	}
}

func reminderList(reminders []model.Reminder) platform.Message {
	blocks := []slack.Block{headerBlock("Your reminders")}
	lines := make([]string, 0, len(reminders))
	for _, r := range reminders {
		section := sectionBlock(fmt.Sprintf("*%s*\n🕒 %s  ·  ID `%s`", r.Content, r.DisplayTime(), r.ID))
		section.Accessory = slack.NewAccessory(button(model.ActionDeleteReminder, r.ID, "Delete", slack.StyleDanger))
		blocks = append(blocks, section)
		lines = append(lines, fmt.Sprintf("• %s (%s) ID %s", r.Content, r.DisplayTime(), r.ID))
	}
	return platform.Message{
		Text:   "Your reminders:\n" + strings.Join(lines, "\n"),
		Blocks: blocks,
	}
}

func overviewMessage(projects []model.RoadmapSummary) platform.Message {
	blocks := []slack.Block{
		headerBlock("Hi, I'm Roadie 👋"),
		sectionBlock(service.Capabilities),
	}

	if len(projects) > 0 {
		var b strings.Builder
		b.WriteString("*Projects I know about*\n")
		for _, p := range projects {
			if p.Name != "" {
				fmt.Fprintf(&b, "• `%s` %s\n", p.ProjectID, p.Name)
			} else {
				fmt.Fprintf(&b, "• `%s`\n", p.ProjectID)
			}
		}
		blocks = append(blocks, textSections(b.String())...)
	}

	blocks = append(blocks, slack.NewActionBlock("overview_actions",
		button(model.ActionTryBot, "start", "Try it", slack.StylePrimary),
		button(model.ActionHelp, "help", "Help", ""),
	))

	return platform.Message{Text: service.Capabilities, Blocks: blocks}
}

func gettingStartedMessage(userID string) platform.Message {
	text := fmt.Sprintf("Welcome aboard, <@%s>! A few things to try:\n"+
		"• `/draft a friendly note announcing Friday's release`\n"+
		"• `/reminder review the roadmap tomorrow at 10am`\n"+
		"• `/convo 30` to catch up on this channel\n"+
		"• or just mention me with a question.", userID)
	return platform.Message{
		Text:   text,
		Blocks: []slack.Block{sectionBlock(text)},
	}
}

func plain(text string) platform.Message {
	return platform.Message{Text: text, Blocks: []slack.Block{sectionBlock(text)}}
}
