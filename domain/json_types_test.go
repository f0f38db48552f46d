package domain_test

import (
	"claimflow/domain"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("JSONMap", func() {
	Describe("Value", func() {
		It("should serialize to a json string", func() {
			value, err := domain.JSONMap{"clientName": "J. Jansen"}.Value()
			Expect(err).To(BeNil())
			Expect(value).To(MatchJSON(`{"clientName": "J. Jansen"}`))
		})
		It("should keep nil maps as database null", func() {
			value, err := domain.JSONMap(nil).Value()
			Expect(err).To(BeNil())
			Expect(value).To(BeNil())
		})
	})

	Describe("Scan", func() {
		It("should accept string and byte columns", func() {
			m := domain.JSONMap{}
			Expect(m.Scan(`{"clientName": "J. Jansen"}`)).To(BeNil())
			Expect(m).To(Equal(domain.JSONMap{"clientName": "J. Jansen"}))

			m = domain.JSONMap{}
			Expect(m.Scan([]byte(`{"policyNumber": "POL-1"}`))).To(BeNil())
			Expect(m).To(Equal(domain.JSONMap{"policyNumber": "POL-1"}))
		})
		It("should reset on database null", func() {
			m := domain.JSONMap{"clientName": "J. Jansen"}
			Expect(m.Scan(nil)).To(BeNil())
			Expect(m).To(BeNil())
		})
		It("should reject other column types", func() {
			m := domain.JSONMap{}
			Expect(m.Scan(42)).ToNot(BeNil())
		})
	})

	Describe("IsEmpty", func() {
		It("should treat nil and empty maps alike", func() {
			Expect(domain.JSONMap(nil).IsEmpty()).To(BeTrue())
			Expect(domain.JSONMap{}.IsEmpty()).To(BeTrue())
			Expect(domain.JSONMap{"k": "v"}.IsEmpty()).To(BeFalse())
		})
	})
})

var _ = Describe("ActionSpecs", func() {
	It("should round-trip through a json column", func() {
		specs := domain.ActionSpecs{
			{Type: domain.ActionGenerateDocument, DocumentType: "claim_confirmation"},
			{Type: domain.ActionCreateNotification, Message: "claim registered"},
		}
		value, err := specs.Value()
		Expect(err).To(BeNil())

		scanned := domain.ActionSpecs{}
		Expect(scanned.Scan(value)).To(BeNil())
		Expect(scanned).To(Equal(specs))
	})
})
