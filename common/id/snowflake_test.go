package id_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Zay2006/Slacking-Capstone/common/id"
)

var _ = Describe("ResolveNode", func() {
	It("prefers the configured node", func() {
		Expect(id.ResolveNode(7)).To(Equal(int64(7)))
		Expect(id.ResolveNode(0)).To(Equal(int64(0)))
	})

	It("derives the node from the hostname when unset", func() {
		hostname, err := os.Hostname()
		Expect(err).NotTo(HaveOccurred())

		Expect(id.ResolveNode(-1)).To(Equal(id.NodeFromHostname(hostname)))
	})
})

var _ = Describe("NodeFromHostname", func() {
	It("stays in the node range and is stable", func() {
		for _, host := range []string{"", "slackbot-0", "slackbot-1", "ip-10-0-3-17.ec2.internal"} {
			n := id.NodeFromHostname(host)
			Expect(n).To(BeNumerically(">=", 0))
			Expect(n).To(BeNumerically("<=", 1023))
			Expect(id.NodeFromHostname(host)).To(Equal(n))
		}
	})

	It("separates replicas of the same deployment", func() {
		Expect(id.NodeFromHostname("slackbot-0")).NotTo(Equal(id.NodeFromHostname("slackbot-1")))
	})

	It("yields a node the generator accepts", func() {
		Expect(id.Init(id.NodeFromHostname("slackbot-0"))).To(Succeed())
		Expect(id.New()).To(BeNumerically(">", 0))
	})
})

var _ = Describe("Format and Parse", func() {
	It("round-trips", func() {
		v := id.New()
		parsed, err := id.Parse(id.Format(v))
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(v))
	})
})
