package wirestatus_test

import (
	"errors"

	"github.com/nabbar/wirerpc/wirestatus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Status", func() {
	It("the zero value and OK are both ok and falsy as an error", func() {
		var zero wirestatus.Status
		Expect(zero.IsOK()).To(BeTrue())
		Expect(zero.AsError()).To(BeNil())
		Expect(wirestatus.OK.IsOK()).To(BeTrue())
		Expect(wirestatus.OK.AsError()).To(BeNil())
	})

	It("FromSystem(nil) collapses to OK", func() {
		Expect(wirestatus.FromSystem(nil)).To(Equal(wirestatus.OK))
	})

	It("FromSystem wraps a non-nil error and is truthy", func() {
		cause := errors.New("connection reset")
		st := wirestatus.FromSystem(cause)

		Expect(st.IsOK()).To(BeFalse())
		Expect(st.IsSystem()).To(BeTrue())
		Expect(st.SystemError()).To(Equal(cause))
		Expect(st.AsError()).To(HaveOccurred())
		Expect(st.Error()).To(Equal(cause.Error()))
	})

	It("FromFramework(FrameworkNone) collapses to OK", func() {
		Expect(wirestatus.FromFramework(wirestatus.FrameworkNone)).To(Equal(wirestatus.OK))
	})

	It("FromFramework(FrameworkInsufficientThroughput) is the framework kind", func() {
		st := wirestatus.FromFramework(wirestatus.FrameworkInsufficientThroughput)

		Expect(st.IsOK()).To(BeFalse())
		Expect(st.IsFramework()).To(BeTrue())
		Expect(st.IsInsufficientThroughput()).To(BeTrue())
		Expect(st.Code()).To(Equal(wirestatus.FrameworkInsufficientThroughput))
		Expect(st.Error()).To(Equal("insufficient_throughput"))
	})

	It("is comparable so two equally-constructed statuses are equal", func() {
		a := wirestatus.FromFramework(wirestatus.FrameworkInsufficientThroughput)
		b := wirestatus.FromFramework(wirestatus.FrameworkInsufficientThroughput)
		Expect(a).To(Equal(b))
	})

	It("renders String() as \"ok\" when ok and as Error() otherwise", func() {
		Expect(wirestatus.OK.String()).To(Equal("ok"))
		st := wirestatus.FromFramework(wirestatus.FrameworkInsufficientThroughput)
		Expect(st.String()).To(Equal(st.Error()))
	})

	It("SystemError/Code return zero values for the other kinds", func() {
		sysSt := wirestatus.FromSystem(errors.New("x"))
		Expect(sysSt.Code()).To(Equal(wirestatus.FrameworkNone))

		fwSt := wirestatus.FromFramework(wirestatus.FrameworkInsufficientThroughput)
		Expect(fwSt.SystemError()).To(BeNil())
	})
})
