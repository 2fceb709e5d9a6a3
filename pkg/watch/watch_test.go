package watch_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/mandelsoft/interedit/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/interedit/pkg/ctxutil"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/watch"
)

var _ = Describe("selection registry", func() {
	var registry *watch.SelectionRegistry

	BeforeEach(func() {
		registry = watch.NewRegistry()
	})

	It("dispatches to sheet and wildcard handlers", func() {
		a := &watch.Recorder{}
		b := &watch.Recorder{}
		all := &watch.Recorder{}
		registry.RegisterWatchHandler(watch.Request{Sheet: "a"}, a)
		registry.RegisterWatchHandler(watch.Request{Sheet: "b"}, b)
		registry.RegisterWatchHandler(watch.Request{}, all)

		sel := watch.Selection{Sheet: "a", List: "add", Operation: watch.OP_DO, Entities: []sig.EntityId{1, 2}}
		registry.Publish(sel)

		Expect(a.Events()).To(Equal([]watch.Selection{sel}))
		Expect(b.Events()).To(BeEmpty())
		Expect(all.Last()).To(Equal(&sel))
	})

	It("unregisters handlers", func() {
		a := &watch.Recorder{}
		registry.RegisterWatchHandler(watch.Request{Sheet: "a"}, a)
		registry.UnregisterWatchHandler(watch.Request{Sheet: "a"}, a)
		registry.Publish(watch.Selection{Sheet: "a"})
		Expect(a.Last()).To(BeNil())
	})
})

var _ = Describe("watch endpoint", func() {
	var ctx context.Context
	var registry *watch.SelectionRegistry
	var endpoint *watch.RequestHandler[watch.Request, watch.Selection]
	var srv *httptest.Server
	var url string

	BeforeEach(func() {
		ctx = ctxutil.TimeoutContext(context.Background(), 10*time.Second)
		registry = watch.NewRegistry()
		endpoint = watch.WatchHttpHandler[watch.Request, watch.Selection](registry)
		srv = httptest.NewServer(endpoint)
		url = "ws" + strings.TrimPrefix(srv.URL, "http")
	})

	AfterEach(func() {
		MustBeSuccessful(endpoint.Close())
		srv.Close()
		ctxutil.Cancel(ctx)
	})

	It("delivers selections to remote watchers", func() {
		client := watch.NewClient[watch.Request, watch.Selection](url)
		w := Must(client.Watch(ctx, watch.Request{Sheet: "score"}))
		defer w.Close()

		Eventually(endpoint.Connections).Should(Equal(1))

		registry.Publish(watch.Selection{Sheet: "other", Operation: watch.OP_DO})
		sel := watch.Selection{Sheet: "score", List: "link", Operation: watch.OP_UNDO, Entities: []sig.EntityId{4, 7}}
		registry.Publish(sel)

		events := Must(w.Receive())
		Expect(events).To(Equal([]watch.Selection{sel}))
	})

	It("unregisters closed watchers", func() {
		client := watch.NewClient[watch.Request, watch.Selection](url)
		w := Must(client.Watch(ctx, watch.Request{Sheet: "score"}))
		Eventually(endpoint.Connections).Should(Equal(1))

		MustBeSuccessful(w.Close())
		Eventually(endpoint.Connections).Should(Equal(0))
	})
})
