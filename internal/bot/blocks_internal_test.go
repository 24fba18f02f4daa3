package bot

import (
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/slack-go/slack"
)

var _ = Describe("textSections", func() {
	sectionTexts := func(blocks []slack.Block) []string {
		out := make([]string, 0, len(blocks))
		for _, b := range blocks {
			out = append(out, b.(*slack.SectionBlock).Text.Text)
		}
		return out
	}

	It("keeps short text in one section", func() {
		Expect(sectionTexts(textSections("one\n\ntwo"))).To(Equal([]string{"one\n\ntwo"}))
	})

	It("hard-splits a long paragraph without cutting a character", func() {
		// 3-byte runes put the byte limit in the middle of one.
		para := "a" + strings.Repeat("界", maxSectionText)

		texts := sectionTexts(textSections(para))

		Expect(len(texts)).To(BeNumerically(">", 1))
		for _, t := range texts {
			Expect(utf8.ValidString(t)).To(BeTrue())
			Expect(len(t)).To(BeNumerically("<=", maxSectionText))
		}
		Expect(strings.Join(texts, "")).To(Equal(para))
	})
})
