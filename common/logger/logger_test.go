package logger_test

import (
	"bytes"
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Zay2006/Slacking-Capstone/common/logger"
)

var _ = Describe("LogFields", func() {
	It("merges newer values over older ones", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			TeamID:    logger.Ptr("T1"),
			ChannelID: logger.Ptr("C1"),
			Transport: "socket",
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{
			ChannelID: logger.Ptr("C2"),
			Component: "slackbot.bot.commands",
		})

		f := logger.GetLogFields(ctx)
		Expect(*f.TeamID).To(Equal("T1"))
		Expect(*f.ChannelID).To(Equal("C2"))
		Expect(f.Transport).To(Equal("socket"))
		Expect(f.Component).To(Equal("slackbot.bot.commands"))
		Expect(f.UserID).To(BeNil())
	})

	It("stamps context fields onto records", func() {
		var buf bytes.Buffer
		log := slog.New(logger.NewTraceHandler(slog.NewTextHandler(&buf, nil)))

		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			UserID:  logger.Ptr("U1"),
			Command: logger.Ptr("/draft"),
		})
		log.InfoContext(ctx, "handled")

		Expect(buf.String()).To(ContainSubstring("user_id=U1"))
		Expect(buf.String()).To(ContainSubstring("command=/draft"))
		Expect(buf.String()).NotTo(ContainSubstring("trace_id"))
	})
})

var _ = Describe("Truncate", func() {
	It("keeps short strings and cuts long ones on rune boundaries", func() {
		Expect(logger.Truncate("hello", 10)).To(Equal("hello"))
		Expect(logger.Truncate("héllo wörld", 5)).To(Equal("héllo..."))
	})
})
