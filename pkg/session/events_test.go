package session_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/satchelhq/satchel/pkg/chat"
	"github.com/satchelhq/satchel/pkg/session"
)

var _ = Describe("Store event handlers", func() {
	var (
		transport *fakeTransport
		store     *session.Store
		ctx       context.Context
	)

	BeforeEach(func() {
		transport = newFakeTransport()
		store = session.NewStore(transport)
		ctx = context.Background()
	})

	Describe("OnMessageCreated", func() {
		It("inserts a message exactly once regardless of redelivery", func() {
			msg := userMessage("m1", "s1", "hi")

			store.OnMessageCreated("s1", msg)
			store.OnMessageCreated("s1", msg)
			store.OnMessageCreated("s1", msg)

			messages, _ := store.Messages("s1")
			Expect(messages).To(HaveLen(1))
		})

		It("creates the sequence when the session was never opened", func() {
			store.OnMessageCreated("fresh", userMessage("m1", "fresh", "hi"))

			messages, cached := store.Messages("fresh")
			Expect(cached).To(BeTrue())
			Expect(messages).To(HaveLen(1))
		})

		Context("optimistic placeholder handoff", func() {
			BeforeEach(func() {
				store.SendMessage(ctx, "s1", "hi", nil)
			})

			It("replaces the placeholder when the confirmed text matches", func() {
				store.OnMessageCreated("s1", userMessage("real-1", "s1", "hi"))

				messages, _ := store.Messages("s1")
				Expect(messages).To(HaveLen(1))
				Expect(messages[0].Info.ID).To(Equal("real-1"))
				Expect(messages[0].IsOptimistic()).To(BeFalse())
			})

			It("keeps both messages when the text differs", func() {
				store.OnMessageCreated("s1", userMessage("real-1", "s1", "bye"))

				messages, _ := store.Messages("s1")
				Expect(messages).To(HaveLen(2))
				Expect(messages[0].IsOptimistic()).To(BeTrue())
				Expect(messages[1].Info.ID).To(Equal("real-1"))
			})

			It("does not resolve the placeholder with an assistant message", func() {
				store.OnMessageCreated("s1", assistantMessage("a1", "s1", "hi"))

				messages, _ := store.Messages("s1")
				Expect(messages).To(HaveLen(2))
				Expect(messages[0].IsOptimistic()).To(BeTrue())
			})
		})

		It("clears typing on assistant messages, even duplicates", func() {
			store.SendMessage(ctx, "s1", "q", nil)
			Expect(store.Typing()).To(BeTrue())

			msg := assistantMessage("a1", "s1", "answer")
			store.OnMessageCreated("s1", msg)
			Expect(store.Typing()).To(BeFalse())

			store.SendMessage(ctx, "s1", "q2", nil)
			Expect(store.Typing()).To(BeTrue())
			store.OnMessageCreated("s1", msg)
			Expect(store.Typing()).To(BeFalse())
		})

		It("leaves typing untouched on user messages", func() {
			store.SendMessage(ctx, "s1", "q", nil)
			store.OnMessageCreated("s1", userMessage("real-1", "s1", "q"))
			Expect(store.Typing()).To(BeTrue())
		})
	})

	Describe("OnMessageUpdated", func() {
		It("drops events for sessions with no cached sequence", func() {
			store.OnMessageUpdated("ghost", userMessage("m1", "ghost", "hi"))

			_, cached := store.Messages("ghost")
			Expect(cached).To(BeFalse())
		})

		It("replaces the matching message wholesale", func() {
			store.OnMessageCreated("s1", userMessage("m1", "s1", "draft"))
			store.OnMessageUpdated("s1", userMessage("m1", "s1", "final"))

			messages, _ := store.Messages("s1")
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].TextContent()).To(Equal("final"))
		})

		It("appends when the id is unknown", func() {
			store.OnMessageCreated("s1", userMessage("m1", "s1", "hi"))
			store.OnMessageUpdated("s1", assistantMessage("a1", "s1", "reply"))

			messages, _ := store.Messages("s1")
			Expect(messages).To(HaveLen(2))
		})

		It("clears typing on assistant updates", func() {
			store.SendMessage(ctx, "s1", "q", nil)
			store.OnMessageUpdated("s1", assistantMessage("a1", "s1", "reply"))
			Expect(store.Typing()).To(BeFalse())
		})
	})

	Describe("OnMessagePartDelta", func() {
		BeforeEach(func() {
			msg := chat.Message{
				Info: chat.MessageInfo{ID: "m1", SessionID: "s1", Role: chat.RoleAssistant},
				Parts: []chat.Part{
					&chat.TextPart{
						PartBase: chat.PartBase{ID: "p1", SessionID: "s1", MessageID: "m1"},
						Text:     "hel",
					},
					&chat.ToolPart{
						PartBase: chat.PartBase{ID: "p2", SessionID: "s1", MessageID: "m1"},
						Tool:     "bash",
						State:    chat.ToolState{Status: chat.ToolRunning},
					},
				},
			}
			store.OnMessageCreated("s1", msg)
		})

		It("appends streamed text to the matching text part", func() {
			store.OnMessagePartDelta("s1", "m1", "p1", "lo")

			messages, _ := store.Messages("s1")
			text := messages[0].Parts[0].(*chat.TextPart)
			Expect(text.Text).To(Equal("hello"))
		})

		It("accumulates across successive deltas", func() {
			store.OnMessagePartDelta("s1", "m1", "p1", "lo")
			store.OnMessagePartDelta("s1", "m1", "p1", " world")

			messages, _ := store.Messages("s1")
			Expect(messages[0].Parts[0].(*chat.TextPart).Text).To(Equal("hello world"))
		})

		It("ignores deltas for non-text parts", func() {
			store.OnMessagePartDelta("s1", "m1", "p2", "lo")

			messages, _ := store.Messages("s1")
			tool := messages[0].Parts[1].(*chat.ToolPart)
			Expect(tool.State.Status).To(Equal(chat.ToolRunning))
		})

		It("drops deltas for unknown sessions, messages and parts", func() {
			store.OnMessagePartDelta("nope", "m1", "p1", "x")
			store.OnMessagePartDelta("s1", "nope", "p1", "x")
			store.OnMessagePartDelta("s1", "m1", "nope", "x")

			messages, _ := store.Messages("s1")
			Expect(messages[0].Parts[0].(*chat.TextPart).Text).To(Equal("hel"))
		})

		It("never mutates a previously taken snapshot", func() {
			before, _ := store.Messages("s1")

			store.OnMessagePartDelta("s1", "m1", "p1", "lo")

			Expect(before[0].Parts[0].(*chat.TextPart).Text).To(Equal("hel"))
			after, _ := store.Messages("s1")
			Expect(after[0].Parts[0].(*chat.TextPart).Text).To(Equal("hello"))
		})

		It("lets snapshot readers run concurrently with streamed deltas", func() {
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				for i := 0; i < 200; i++ {
					store.OnMessagePartDelta("s1", "m1", "p1", "x")
				}
			}()

			for i := 0; i < 200; i++ {
				messages, _ := store.Messages("s1")
				_ = messages[0].TextContent()
			}
			Eventually(done).Should(BeClosed())
		})
	})

	Describe("OnMessagePartUpdated", func() {
		BeforeEach(func() {
			store.OnMessageCreated("s1", assistantMessage("m1", "s1", "body"))
		})

		It("replaces an existing part by id", func() {
			replacement := &chat.TextPart{
				PartBase: chat.PartBase{ID: "m1-p1", SessionID: "s1", MessageID: "m1"},
				Text:     "rewritten",
			}

			store.OnMessagePartUpdated("s1", replacement)

			messages, _ := store.Messages("s1")
			Expect(messages[0].Parts).To(HaveLen(1))
			Expect(messages[0].Parts[0].(*chat.TextPart).Text).To(Equal("rewritten"))
		})

		It("appends a part introduced mid-stream", func() {
			tool := &chat.ToolPart{
				PartBase: chat.PartBase{ID: "p9", SessionID: "s1", MessageID: "m1"},
				Tool:     "edit",
				State:    chat.ToolState{Status: chat.ToolPending},
			}

			store.OnMessagePartUpdated("s1", tool)

			messages, _ := store.Messages("s1")
			Expect(messages[0].Parts).To(HaveLen(2))
		})

		It("drops parts whose owning message is unknown", func() {
			orphan := &chat.TextPart{
				PartBase: chat.PartBase{ID: "px", SessionID: "s1", MessageID: "ghost"},
				Text:     "lost",
			}

			store.OnMessagePartUpdated("s1", orphan)

			messages, _ := store.Messages("s1")
			Expect(messages[0].Parts).To(HaveLen(1))
		})
	})

	Describe("OnSessionStatus", func() {
		It("updates a listed session's status in place", func() {
			transport.sessions = []chat.Session{{ID: "s1"}, {ID: "s2"}}
			store.LoadSessions(ctx, "")

			store.OnSessionStatus("s2", chat.SessionStatus{Status: chat.SessionActive})

			sessions := store.Sessions()
			Expect(sessions[0].Status).To(BeNil())
			Expect(sessions[1].Status).ToNot(BeNil())
			Expect(sessions[1].Status.Status).To(Equal(chat.SessionActive))
		})

		It("ignores unknown session ids", func() {
			store.OnSessionStatus("ghost", chat.SessionStatus{Status: chat.SessionIdle})
			Expect(store.Sessions()).To(BeEmpty())
		})
	})
})
