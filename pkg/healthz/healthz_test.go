package healthz_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/interedit/pkg/healthz"
)

var _ = Describe("health checks", func() {
	AfterEach(func() {
		healthz.End("test/alive")
		healthz.End("test/stuck")
	})

	It("reports ticked checks as healthy", func() {
		healthz.Start("test/alive", time.Hour)
		healthz.Tick("test/alive")
		healthz.Tick("test/unknown")
		Expect(healthz.IsHealthy()).To(BeTrue())

		rec := httptest.NewRecorder()
		healthz.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("test/alive: "))
	})

	It("detects outdated checks", func() {
		healthz.Start("test/alive", time.Hour)
		healthz.Start("test/stuck", time.Millisecond)
		time.Sleep(10 * time.Millisecond)

		ok, info := healthz.HealthInfo()
		Expect(ok).To(BeFalse())
		Expect(info[0].Key).To(Equal("test/alive"))
		Expect(info[0].Healthy).To(BeTrue())
		Expect(info[1].Key).To(Equal("test/stuck"))
		Expect(info[1].Healthy).To(BeFalse())

		rec := httptest.NewRecorder()
		healthz.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(ContainSubstring("outdated"))

		healthz.End("test/stuck")
		Expect(healthz.IsHealthy()).To(BeTrue())
	})
})
