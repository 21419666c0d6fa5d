package ident_test

import (
	"github.com/nabbar/wirerpc/ident"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Identifier", func() {
	It("parses a leader followed by letters, digits and underscores", func() {
		id, err := ident.Parse("add")
		Expect(err).ToNot(HaveOccurred())
		Expect(id.String()).To(Equal("add"))

		id, err = ident.Parse("_method_2")
		Expect(err).ToNot(HaveOccurred())
		Expect(id.String()).To(Equal("_method_2"))
	})

	It("rejects the empty string", func() {
		_, err := ident.Parse("")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a leading digit", func() {
		_, err := ident.Parse("2method")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("2method"))
	})

	It("rejects an embedded invalid byte", func() {
		_, err := ident.Parse("ba d")
		Expect(err).To(HaveOccurred())
	})

	It("compares identifiers by value, not identity", func() {
		a := ident.MustParse("add")
		b := ident.MustParse("add")
		c := ident.MustParse("subtract")

		Expect(a.Equal(b)).To(BeTrue())
		Expect(a.Equal(c)).To(BeFalse())
	})

	It("treats the zero value as Empty", func() {
		var zero ident.Identifier
		Expect(zero.Empty()).To(BeTrue())
		Expect(ident.MustParse("x").Empty()).To(BeFalse())
	})

	It("panics in MustParse on invalid input", func() {
		Expect(func() { ident.MustParse("1bad") }).To(Panic())
	})

	DescribeTable("IsLeaderByte / IsFollowerByte classify the grammar's byte set",
		func(b byte, wantLeader, wantFollower bool) {
			Expect(ident.IsLeaderByte(b)).To(Equal(wantLeader))
			Expect(ident.IsFollowerByte(b)).To(Equal(wantFollower))
		},
		Entry("uppercase letter", byte('A'), true, true),
		Entry("lowercase letter", byte('z'), true, true),
		Entry("underscore", byte('_'), true, true),
		Entry("digit", byte('7'), false, true),
		Entry("space", byte(' '), false, false),
		Entry("hyphen", byte('-'), false, false),
	)
})
