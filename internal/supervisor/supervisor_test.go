package supervisor_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Zay2006/Slacking-Capstone/internal/supervisor"
)

// fakeWorker beats until told to go silent, and exits when told to fail or
// panic.
type fakeWorker struct {
	generation string
	silent     atomic.Bool
	fail       chan error
	panicNow   chan struct{}
}

func (w *fakeWorker) Handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte(w.generation))
	})
}

func (w *fakeWorker) Run(ctx context.Context, beat func()) error {
	go supervisor.Beat(ctx, 5*time.Millisecond, func() bool { return !w.silent.Load() }, beat)
	select {
	case <-ctx.Done():
		return nil
	case err := <-w.fail:
		return err
	case <-w.panicNow:
		panic("socket exploded")
	}
}

type fakeFactory struct {
	mu      sync.Mutex
	workers []*fakeWorker
	err     error
}

func (f *fakeFactory) build(_ context.Context, generation string) (supervisor.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	w := &fakeWorker{generation: generation, fail: make(chan error, 1), panicNow: make(chan struct{})}
	f.workers = append(f.workers, w)
	return w, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.workers)
}

func (f *fakeFactory) latest() *fakeWorker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workers[len(f.workers)-1]
}

var _ = Describe("Supervisor", func() {
	var (
		factory *fakeFactory
		sup     *supervisor.Supervisor
		cancel  context.CancelFunc
		stopped chan struct{}
	)

	state := func() supervisor.State { return sup.Status().State }

	BeforeEach(func() {
		factory = &fakeFactory{}
		sup = supervisor.New(factory.build, supervisor.Config{
			HeartbeatInterval: 10 * time.Millisecond,
			HeartbeatTimeout:  60 * time.Millisecond,
			RestartDelay:      10 * time.Millisecond,
		})

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		stopped = make(chan struct{})
		go func() {
			defer close(stopped)
			_ = sup.Run(ctx)
		}()
	})

	AfterEach(func() {
		cancel()
		Eventually(stopped).Should(BeClosed())
	})

	It("starts a worker with a generation id", func() {
		Eventually(state).Should(Equal(supervisor.StateRunning))
		st := sup.Status()
		Expect(st.Generation).To(HaveLen(36))
		Expect(st.Restarts).To(BeZero())
	})

	It("restarts a worker that returns an error", func() {
		Eventually(factory.count).Should(Equal(1))
		first := sup.Status().Generation
		factory.latest().fail <- errors.New("socket closed")

		Eventually(factory.count).Should(Equal(2))
		Eventually(state).Should(Equal(supervisor.StateRunning))
		st := sup.Status()
		Expect(st.Generation).NotTo(Equal(first))
		Expect(st.Restarts).To(Equal(1))
		Expect(st.LastError).To(Equal("socket closed"))
	})

	It("restarts a worker that panics", func() {
		Eventually(factory.count).Should(Equal(1))
		close(factory.latest().panicNow)

		Eventually(factory.count).Should(Equal(2))
		Expect(sup.Status().LastError).To(ContainSubstring("socket exploded"))
	})

	It("restarts a worker whose heartbeat goes stale", func() {
		Eventually(factory.count).Should(Equal(1))
		factory.latest().silent.Store(true)

		Eventually(factory.count).Should(Equal(2))
		Expect(sup.Status().LastError).To(Equal("heartbeat timeout"))
	})

	It("keeps retrying when the factory fails", func() {
		Eventually(factory.count).Should(Equal(1))
		factory.mu.Lock()
		factory.err = errors.New("no token")
		factory.mu.Unlock()
		factory.latest().fail <- errors.New("socket closed")

		Eventually(func() int { return sup.Status().Restarts }).Should(BeNumerically(">=", 3))
		Eventually(func() string { return sup.Status().LastError }).Should(ContainSubstring("no token"))

		factory.mu.Lock()
		factory.err = nil
		factory.mu.Unlock()
		Eventually(state).Should(Equal(supervisor.StateRunning))
	})

	It("stops and starts on request", func() {
		Eventually(state).Should(Equal(supervisor.StateRunning))

		Expect(sup.Do("stop")).To(Succeed())
		Expect(state()).To(Equal(supervisor.StateStopped))
		Consistently(factory.count, 100*time.Millisecond).Should(Equal(1))

		Expect(sup.Do("start")).To(Succeed())
		Eventually(state).Should(Equal(supervisor.StateRunning))
		Expect(factory.count()).To(Equal(2))
		Expect(sup.Status().Restarts).To(BeZero())
	})

	It("restarts on request", func() {
		Eventually(state).Should(Equal(supervisor.StateRunning))
		Expect(sup.Do("restart")).To(Succeed())
		Eventually(factory.count).Should(Equal(2))
		Eventually(state).Should(Equal(supervisor.StateRunning))
	})

	It("rejects unknown actions", func() {
		Expect(sup.Do("explode")).To(MatchError(supervisor.ErrUnknownAction))
	})

	Describe("routes", func() {
		var router *gin.Engine

		BeforeEach(func() {
			gin.SetMode(gin.TestMode)
			router = gin.New()
			sup.RegisterRoutes(router)
		})

		serve := func(req *http.Request) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		It("forwards slack requests to the current worker", func() {
			Eventually(state).Should(Equal(supervisor.StateRunning))
			w := serve(httptest.NewRequest(http.MethodPost, "/slack/events", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal(sup.Status().Generation))
		})

		It("answers 503 while stopped", func() {
			Eventually(state).Should(Equal(supervisor.StateRunning))
			Expect(sup.Stop()).To(Succeed())
			w := serve(httptest.NewRequest(http.MethodPost, "/slack/commands", nil))
			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("reports and changes state through the controller", func() {
			Eventually(state).Should(Equal(supervisor.StateRunning))

			w := serve(httptest.NewRequest(http.MethodGet, "/controller", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"state":"running"`))

			w = serve(httptest.NewRequest(http.MethodPost, "/controller", bytes.NewBufferString(`{"action":"stop"}`)))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"state":"stopped"`))

			w = serve(httptest.NewRequest(http.MethodPost, "/controller", bytes.NewBufferString(`{"action":"dance"}`)))
			Expect(w.Code).To(Equal(http.StatusBadRequest))

			w = serve(httptest.NewRequest(http.MethodPost, "/controller", bytes.NewBufferString(`{}`)))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})

var _ = Describe("Supervisor before Run", func() {
	It("refuses controller actions", func() {
		sup := supervisor.New(func(context.Context, string) (supervisor.Worker, error) { return nil, nil }, supervisor.Config{
			HeartbeatInterval: time.Second, HeartbeatTimeout: time.Second, RestartDelay: time.Second,
		})
		Expect(sup.Start()).To(MatchError(supervisor.ErrNotRunning))
		Expect(sup.Status().State).To(Equal(supervisor.StateStopped))
	})
})
