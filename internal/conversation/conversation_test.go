package conversation_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"spandi-backend/internal/conversation"
)

func texts(c *conversation.Conversation) []string {
	out := make([]string, len(c.Messages))
	for i, m := range c.Messages {
		out[i] = m.Text
	}
	return out
}

var _ = Describe("Conversation", func() {
	var c *conversation.Conversation

	BeforeEach(func() {
		c = conversation.New("session-1")
	})

	Describe("New", func() {
		It("starts with the assistant greeting", func() {
			Expect(c.Messages).To(HaveLen(1))
			Expect(c.Messages[0].Role).To(Equal(conversation.RoleAssistant))
			Expect(c.Messages[0].Text).To(Equal(conversation.Greeting))
			Expect(c.Pending).To(BeNil())
		})
	})

	Describe("Submit", func() {
		It("appends the user message optimistically and clears the composer", func() {
			c.Composer = "What is the meaning of life?"

			p, err := c.Submit("What is the meaning of life?")

			Expect(err).NotTo(HaveOccurred())
			Expect(c.Messages).To(HaveLen(2))
			last := c.Messages[1]
			Expect(last.Role).To(Equal(conversation.RoleUser))
			Expect(last.Text).To(Equal("What is the meaning of life?"))
			Expect(last.ID).To(Equal(p.MessageID))
			Expect(c.Composer).To(BeEmpty())
			Expect(c.Pending).NotTo(BeNil())
			Expect(c.Pending.Text).To(Equal("What is the meaning of life?"))
		})

		DescribeTable("rejects blank input without changing state",
			func(text string) {
				before := c.Clone()

				_, err := c.Submit(text)

				Expect(err).To(MatchError(conversation.ErrEmptyInput))
				Expect(c).To(Equal(before))
			},
			Entry("empty", ""),
			Entry("spaces", "   "),
			Entry("mixed whitespace", "\t\n "),
		)

		It("allows only one send in flight", func() {
			_, err := c.Submit("first")
			Expect(err).NotTo(HaveOccurred())
			before := c.Clone()

			_, err = c.Submit("second")

			Expect(err).To(MatchError(conversation.ErrBusy))
			Expect(c).To(Equal(before))
		})
	})

	Describe("Settle", func() {
		It("appends the assistant reply and frees the slot", func() {
			p, _ := c.Submit("A question")

			msg, err := c.Settle(p.MessageID, "An answer")

			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Role).To(Equal(conversation.RoleAssistant))
			Expect(texts(c)).To(Equal([]string{conversation.Greeting, "A question", "An answer"}))
			Expect(c.Pending).To(BeNil())
		})

		It("refuses a stale pending id", func() {
			_, _ = c.Submit("A question")

			_, err := c.Settle("not-the-pending-id", "An answer")

			Expect(err).To(MatchError(conversation.ErrNotPending))
			Expect(c.Pending).NotTo(BeNil())
		})
	})

	Describe("Rollback", func() {
		It("restores [A, B] and puts C back in the composer", func() {
			p, _ := c.Submit("A")
			_, _ = c.Settle(p.MessageID, "B")
			before := texts(c)

			p, err := c.Submit("C")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Rollback(p.MessageID)).To(Succeed())

			Expect(texts(c)).To(Equal(before))
			Expect(c.Composer).To(Equal("C"))
			Expect(c.Pending).To(BeNil())
		})

		It("lets the user resend after a rollback", func() {
			p, _ := c.Submit("C")
			Expect(c.Rollback(p.MessageID)).To(Succeed())

			_, err := c.Submit(c.Composer)

			Expect(err).NotTo(HaveOccurred())
			Expect(texts(c)).To(Equal([]string{conversation.Greeting, "C"}))
		})

		It("fails without a pending send", func() {
			Expect(c.Rollback("anything")).To(MatchError(conversation.ErrNotPending))
		})
	})

	Describe("ReleaseStale", func() {
		It("rolls back a send older than the bound", func() {
			p, _ := c.Submit("C")

			released := c.ReleaseStale(p.SubmittedAt.Add(2*time.Minute), time.Minute)

			Expect(released).To(BeTrue())
			Expect(texts(c)).To(Equal([]string{conversation.Greeting}))
			Expect(c.Composer).To(Equal("C"))
			Expect(c.Pending).To(BeNil())
		})

		It("keeps a send that may still be answered", func() {
			p, _ := c.Submit("C")

			Expect(c.ReleaseStale(p.SubmittedAt.Add(30*time.Second), time.Minute)).To(BeFalse())
			Expect(c.Pending).NotTo(BeNil())
		})

		It("does nothing without a pending send", func() {
			before := c.Clone()

			Expect(c.ReleaseStale(time.Now().Add(time.Hour), time.Minute)).To(BeFalse())
			Expect(c).To(Equal(before))
		})
	})

	Describe("RollbackMessages", func() {
		It("is pure", func() {
			p, _ := c.Submit("C")
			original := append([]conversation.Message(nil), c.Messages...)

			out := conversation.RollbackMessages(c.Messages, p)

			Expect(out).To(HaveLen(1))
			Expect(c.Messages).To(Equal(original))
		})
	})

	Describe("Reset", func() {
		It("returns to a single greeting", func() {
			p, _ := c.Submit("A")
			_, _ = c.Settle(p.MessageID, "B")

			Expect(c.Reset()).To(Succeed())
			Expect(texts(c)).To(Equal([]string{conversation.Greeting}))
		})

		It("is blocked while a send is pending", func() {
			_, _ = c.Submit("A")

			Expect(c.Reset()).To(MatchError(conversation.ErrBusy))
		})
	})

	Describe("Clone", func() {
		It("does not share message storage", func() {
			cp := c.Clone()
			_, _ = cp.Submit("only in the copy")

			Expect(c.Messages).To(HaveLen(1))
			Expect(c.Pending).To(BeNil())
		})
	})
})
