package app_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/mandelsoft/interedit/pkg/testutils"
	"github.com/mandelsoft/vfs/pkg/vfs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/interedit/cmds/interedit/app"
	"github.com/mandelsoft/interedit/pkg/scenario"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/watch"
)

const document = `
name: ${NAME}
systems:
- staves:
  - {left: 0, right: 1000, top: 100, bottom: 140}
operations:
- op: add
  entities:
  - {name: h1, kind: head, staff: 1, bounds: [400, 115, 410, 125]}
- op: undo
  error: ${ERROR}
`

var _ = Describe("interedit command", func() {
	var fs vfs.FileSystem
	var cmd *cobra.Command
	var buf *bytes.Buffer

	BeforeEach(func() {
		fs = Must(MemoryFileSystem(map[string]string{
			"/demo.yaml":   document,
			"/config.yaml": "useStaffProximity: false\n",
			"/broken.yaml": "gutterRatio: 7\n",
		}))
		buf = bytes.NewBuffer(nil)
		cmd = app.New(fs)
		cmd.SetOut(buf)
		cmd.SetErr(bytes.NewBuffer(nil))
	})

	Context("run", func() {
		It("replays a scenario", func() {
			cmd.SetArgs([]string{"--config", "/config.yaml", "run", "/demo.yaml", "--var", "NAME=demo", "--var", "ERROR="})
			MustBeSuccessful(cmd.Execute())

			var report scenario.Report
			MustBeSuccessful(yaml.Unmarshal(buf.Bytes(), &report))
			Expect(report.Name).To(Equal("demo"))
			Expect(report.Steps).To(HaveLen(2))
			Expect(report.History).To(Equal(scenario.HistoryReport{Length: 1, Cursor: 0}))
			Expect(report.Systems[0].Content.Entities).To(BeEmpty())
		})

		It("prints json", func() {
			cmd.SetArgs([]string{"run", "/demo.yaml", "-v", "NAME=demo", "-v", "ERROR=", "-o", "json"})
			MustBeSuccessful(cmd.Execute())
			Expect(strings.HasPrefix(buf.String(), "{")).To(BeTrue())
			Expect(buf.String()).To(ContainSubstring(`"name": "demo"`))
		})

		It("reports unexpected outcomes after printing the state", func() {
			cmd.SetArgs([]string{"run", "/demo.yaml", "--var", "NAME=demo", "--var", "ERROR=nothing to undo"})
			err := cmd.Execute()
			Expect(err).To(MatchError(ContainSubstring(`operation 2 (undo): expected error "nothing to undo"`)))
			Expect(buf.String()).To(ContainSubstring("name: demo"))
		})

		DescribeTable("rejects invalid settings",
			func(msg string, args ...string) {
				cmd.SetArgs(args)
				Expect(cmd.Execute()).To(MatchError(ContainSubstring(msg)))
			},
			Entry("variable", `invalid variable setting "NAME"`, "run", "/demo.yaml", "--var", "NAME"),
			Entry("missing config", `config file "/missing.yaml" not found`, "--config", "/missing.yaml", "run", "/demo.yaml"),
			Entry("invalid config", "gutter ratio", "--config", "/broken.yaml", "run", "/demo.yaml"),
			Entry("log level", `invalid log level "chatty"`, "--log-level", "chatty", "run", "/demo.yaml"),
			Entry("output", `invalid output format "xml"`, "run", "/demo.yaml", "-v", "NAME=x", "-v", "ERROR=", "-o", "xml"),
			Entry("missing scenario", "/none.yaml", "run", "/none.yaml"),
		)
	})

	Context("watch", func() {
		It("prints received selections", func() {
			registry := watch.NewRegistry()
			endpoint := watch.WatchHttpHandler[watch.Request, watch.Selection](registry)
			srv := httptest.NewServer(endpoint)
			defer srv.Close()
			defer endpoint.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			cmd.SetArgs([]string{"--server", srv.URL, "watch", "score", "-n", "1"})
			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				done <- cmd.ExecuteContext(ctx)
			}()

			Eventually(endpoint.Connections).Should(Equal(1))
			registry.Publish(watch.Selection{Sheet: "score", List: "add entities", Operation: watch.OP_DO, Entities: []sig.EntityId{3, 4}})

			Eventually(done).Should(Receive(BeNil()))
			Expect(buf.String()).To(Equal(`{"sheet":"score","list":"add entities","operation":"do","entities":[3,4]}` + "\n"))
		})
	})
})
