package socket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/slack-go/slack"

	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/transport"
	"github.com/Zay2006/Slacking-Capstone/internal/transport/socket"
)

type nopHandler struct{}

func (nopHandler) HandleCommand(context.Context, model.Command) error { return nil }
func (nopHandler) HandleMessage(context.Context, model.Message) error { return nil }
func (nopHandler) HandleAction(context.Context, model.Action) error   { return nil }

var _ = Describe("Runner", func() {
	var (
		server      *httptest.Server
		authOK      atomic.Bool
		openAttempt atomic.Int32
		runner      *socket.Runner
	)

	BeforeEach(func() {
		authOK.Store(true)
		openAttempt.Store(0)

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/auth.test":
				if authOK.Load() {
					_, _ = w.Write([]byte(`{"ok":true,"user_id":"UBOT","team_id":"T1"}`))
					return
				}
				_, _ = w.Write([]byte(`{"ok":false,"error":"invalid_auth"}`))
			case "/apps.connections.open":
				openAttempt.Add(1)
				_, _ = w.Write([]byte(`{"ok":false,"error":"internal_error"}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))

		api := slack.New("xoxb-test",
			slack.OptionAPIURL(server.URL+"/"),
			slack.OptionAppLevelToken("xapp-test"),
		)
		runner = socket.NewRunner(api, transport.NewDispatcher(nopHandler{}, "socket"), false)
	})

	AfterEach(func() {
		server.Close()
	})

	It("pings with auth.test", func() {
		Expect(runner.Ping(context.Background())).To(Succeed())

		authOK.Store(false)
		Expect(runner.Ping(context.Background())).To(MatchError(ContainSubstring("invalid_auth")))
	})

	It("returns immediately when the context is already done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(runner.Run(ctx)).To(Succeed())
		Expect(runner.Connected()).To(BeFalse())
	})

	It("keeps retrying a failing connection until cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- runner.Run(ctx) }()

		Eventually(openAttempt.Load, 5*time.Second).Should(BeNumerically(">=", 1))
		Expect(runner.Connected()).To(BeFalse())

		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})
})
