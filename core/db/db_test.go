package db_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Zay2006/Slacking-Capstone/core/db"
)

var _ = Describe("New", func() {
	ctx := context.Background()

	It("reports a missing DSN", func() {
		_, err := db.New(ctx, db.Config{})
		Expect(err).To(MatchError(db.ErrNotConfigured))
	})

	It("rejects an unparseable DSN", func() {
		_, err := db.New(ctx, db.Config{DSN: "postgres://bot@localhost:notaport/roadie"})
		Expect(err).To(HaveOccurred())
	})

	It("keeps the pool when the server is unreachable", func() {
		database, err := db.New(ctx, db.Config{
			DSN:            "postgres://bot@127.0.0.1:1/roadie?connect_timeout=1",
			HealthInterval: time.Hour,
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(database.Close)

		h := database.Check(ctx)
		Expect(h.Healthy).To(BeFalse())
		Expect(h.Error).To(ContainSubstring("pinging database"))
		Expect(database.Healthy(ctx)).To(BeFalse())
		Expect(database.Conn()).NotTo(BeNil())
	})

	It("re-pings once the health interval has passed", func() {
		database, err := db.New(ctx, db.Config{
			DSN:            "postgres://bot@127.0.0.1:1/roadie?connect_timeout=1",
			HealthInterval: time.Millisecond,
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(database.Close)

		first := database.Check(ctx).CheckedAt
		time.Sleep(5 * time.Millisecond)
		Expect(database.Check(ctx).CheckedAt).To(BeTemporally(">", first))
	})
})
