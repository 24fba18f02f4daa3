package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Zay2006/Slacking-Capstone/core/config"
)

var _ = Describe("Load", func() {
	BeforeEach(func() {
		// Not "development", so no .env file is read.
		GinkgoT().Setenv("APP_ENV", "test")
	})

	It("degrades instead of failing on missing credentials", func() {
		GinkgoT().Setenv("SLACK_BOT_TOKEN", "")
		GinkgoT().Setenv("LLM_API_KEY", "")
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		GinkgoT().Setenv("DATABASE_URL", "")

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Enabled()).To(BeFalse())
		Expect(cfg.Slack.SocketModeEnabled()).To(BeFalse())
		Expect(cfg.Reminders.Backend).To(Equal(config.ReminderBackendTimer))
	})

	It("reads durations and the reminder timezone", func() {
		GinkgoT().Setenv("HEARTBEAT_TIMEOUT", "90s")
		GinkgoT().Setenv("BOT_TIMEZONE", "America/New_York")

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Supervisor.HeartbeatTimeout).To(Equal(90 * time.Second))
		Expect(cfg.Reminders.Location().String()).To(Equal("America/New_York"))
	})

	It("rejects malformed values", func() {
		GinkgoT().Setenv("RESTART_DELAY", "soon")
		_, err := config.Load()
		Expect(err).To(MatchError(ContainSubstring("RESTART_DELAY")))
	})

	It("rejects unknown reminder backends", func() {
		GinkgoT().Setenv("REMINDER_BACKEND", "carrier-pigeon")
		_, err := config.Load()
		Expect(err).To(MatchError(ContainSubstring("REMINDER_BACKEND")))
	})

	It("reads the snowflake node, unset meaning hostname", func() {
		GinkgoT().Setenv("SNOWFLAKE_NODE", "")
		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.SnowflakeNode).To(Equal(int64(-1)))

		GinkgoT().Setenv("SNOWFLAKE_NODE", "12")
		cfg, err = config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.SnowflakeNode).To(Equal(int64(12)))
	})

	DescribeTable("rejects out-of-range snowflake nodes",
		func(value string) {
			GinkgoT().Setenv("SNOWFLAKE_NODE", value)
			_, err := config.Load()
			Expect(err).To(MatchError(ContainSubstring("SNOWFLAKE_NODE")))
		},
		Entry("negative", "-1"),
		Entry("too large", "1024"),
		Entry("not a number", "node-a"),
	)

	It("rejects unknown timezones", func() {
		GinkgoT().Setenv("BOT_TIMEZONE", "Mars/Olympus_Mons")
		_, err := config.Load()
		Expect(err).To(MatchError(ContainSubstring("BOT_TIMEZONE")))
	})
})
